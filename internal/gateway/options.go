package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// availableOptions は注文フォームで選択可能な項目の静的カタログ。
// バックエンド呼び出しを伴わず、gatewayが直接返す。
var availableOptions = gin.H{
	"sports": []string{"tennis", "badminton", "squash"},
	"order_statuses": []string{
		"pending", "in_progress", "completed", "cancelled",
	},
	"string_types": []string{
		"polyester", "natural_gut", "synthetic_gut", "multifilament", "hybrid",
	},
	"tension_range": gin.H{"min": 16, "max": 32, "unit": "lbs"},
}

// handleAvailableOptions は静的カタログを返すハンドラを返す。
func (s *Server) handleAvailableOptions() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, availableOptions)
	}
}
