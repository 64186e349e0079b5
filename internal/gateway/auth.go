package gateway

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/sportgw/pkg/middleware"
)

// devUserEmail は開発用ユーザーのメールアドレス。
const devUserEmail = "dev@localhost"

// handleDevToken は開発用JWTトークンを発行するハンドラを返す。
// 開発用ユーザーが存在しなければ作成し、そのユーザーのトークンを返す。
// 本番環境では無効化すべき。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		devUser, err := s.users.byEmail(ctx, devUserEmail)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			devUser = &user{
				ID:          uuid.New().String(),
				Email:       devUserEmail,
				DisplayName: "開発ユーザー",
				Role:        "user",
			}
			if err := s.users.create(ctx, *devUser); err != nil {
				s.renderError(c, err)
				return
			}
		case err != nil:
			s.renderError(c, err)
			return
		default:
			if err := s.users.touchLastLogin(ctx, devUser.ID); err != nil {
				s.renderError(c, err)
				return
			}
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, devUser.ID, devUser.Email, devUser.Role, s.jwtTTL)
		if err != nil {
			s.renderError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":   token,
			"user_id": devUser.ID,
		})
	}
}
