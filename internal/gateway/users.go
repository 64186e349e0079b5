package gateway

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sportgw/pkg/middleware"
)

// handleGetCurrentUser は認証済みユーザーの情報を返すハンドラを返す。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func (s *Server) handleGetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "ユーザーIDが取得できません"})
			return
		}

		u, err := s.users.byID(c.Request.Context(), userID)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "ユーザーが見つかりません"})
			return
		}
		if err != nil {
			s.renderError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":           u.ID,
			"email":        u.Email,
			"display_name": u.DisplayName,
			"role":         u.Role,
		})
	}
}

// handleFirstUser は最初に登録されたユーザーのIDを返すハンドラを返す。
// ユーザーが1件も存在しない場合は404を返す。
func (s *Server) handleFirstUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.users.first(c.Request.Context())
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "ユーザーが存在しません"})
			return
		}
		if err != nil {
			s.renderError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	}
}
