package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nao1215/sportgw/pkg/correlation"
)

// Correlation は相関ID付きのリクエストログを出力するGinミドルウェアを返す。
// リクエストごとに以下を行う。
//  1. 新しい相関ID（UUID）を生成し、リクエストコンテキストへ格納する。
//  2. レスポンスヘッダーX-Correlation-IDに相関IDを設定する。
//  3. リクエスト開始・完了・失敗を処理時間とともにログ出力する。
//
// 相関IDはリクエストコンテキストと同じ寿命を持つため、リクエスト終了後に
// 別のリクエストへ漏れることはない。エラーはログに記録するのみで、
// 握り潰したり変換したりしない。
func Correlation(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := uuid.New().String()
		ctx := correlation.WithID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)

		// パニックで完了ログまで到達しない場合でもヘッダーは返す
		c.Header(correlation.HeaderKey, correlationID)

		start := time.Now()
		logger.Info().
			Str("correlation_id", correlationID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request started")

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		if len(c.Errors) > 0 || status >= http.StatusInternalServerError {
			logger.Error().
				Str("correlation_id", correlationID).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", status).
				Str("error", c.Errors.String()).
				Dur("duration_ms", duration).
				Msg("request failed")
			return
		}

		logger.Info().
			Str("correlation_id", correlationID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration_ms", duration).
			Msg("request completed")
	}
}
