package gateway

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// createOrderReviewRequest は注文レビュー作成リクエストのボディ。
// gatewayはこれをレビューサービスが期待する形へ詰め替えて転送する。
type createOrderReviewRequest struct {
	// OrderID はレビュー対象の注文ID。
	OrderID string `json:"order_id" binding:"required"`
	// UserID はレビューを投稿したユーザーのID。
	UserID string `json:"user_id" binding:"required"`
	// Rating は評価値。
	Rating int `json:"rating" binding:"required"`
	// Content はレビュー本文（任意）。
	Content *string `json:"content"`
	// Extra は追加情報（任意）。内容には関知せずそのまま転送する。
	Extra map[string]any `json:"extra"`
}

// reviewTypeService は注文レビューのレビュー種別。gatewayが固定で設定する。
const reviewTypeService = "service"

// handleCreateOrderReview は注文レビューの作成をレビューサービスへ転送する
// ハンドラを返す。order_idはtarget_idへ、review_typeは"service"固定で
// 詰め替えられる。
func (s *Server) handleCreateOrderReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrderReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "order_id・user_id・ratingを含むJSONボディが必要です"})
			return
		}

		payload := gin.H{
			"target_id":   req.OrderID,
			"review_type": reviewTypeService,
			"user_id":     req.UserID,
			"rating":      req.Rating,
		}
		if req.Content != nil {
			payload["content"] = *req.Content
		}
		if req.Extra != nil {
			payload["extra"] = req.Extra
		}

		body, err := s.reviewClient.Post(c.Request.Context(), "/reviews", payload)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	}
}

// handleListOrderReviews は指定注文のレビュー一覧をレビューサービスから
// 取得するハンドラを返す。
func (s *Server) handleListOrderReviews() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := url.Values{}
		params.Set("review_type", reviewTypeService)
		params.Set("target_id", c.Param("id"))

		body, err := s.reviewClient.Get(c.Request.Context(), "/reviews", params)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	}
}
