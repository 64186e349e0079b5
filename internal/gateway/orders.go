package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sportgw/pkg/event"
)

// orderListParamKeys は注文一覧取得時にバックエンドへ転送するクエリパラメータ。
// 呼び出し元が指定しなかったパラメータは転送されない（空文字列としても送らない）。
var orderListParamKeys = []string{"sport", "order_status", "skip", "limit"}

// handleListOrders は注文一覧をバックエンドから取得するハンドラを返す。
func (s *Server) handleListOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := url.Values{}
		for _, key := range orderListParamKeys {
			if v, ok := c.GetQuery(key); ok && v != "" {
				params.Set(key, v)
			}
		}

		body, err := s.orderClient.Get(c.Request.Context(), "/orders", params)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	}
}

// handleGetOrder は単一の注文をバックエンドから取得するハンドラを返す。
// 非同期呼び出し規約の動作確認を兼ねてDoAsyncを使用するが、
// リクエスト処理の実体は同期呼び出しと同一である。
func (s *Server) handleGetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := <-s.orderClient.DoAsync(c.Request.Context(),
			http.MethodGet, "/orders/"+c.Param("id"), nil, nil, nil)
		if result.Err != nil {
			s.renderError(c, result.Err)
			return
		}
		c.Data(http.StatusOK, "application/json", result.Body)
	}
}

// handleCreateOrder は注文作成をバックエンドへ転送するハンドラを返す。
func (s *Server) handleCreateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "リクエストボディのJSONが不正です"})
			return
		}

		body, err := s.orderClient.Post(c.Request.Context(), "/orders", payload)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	}
}

// handleUpdateOrder は注文更新をバックエンドへ転送するハンドラを返す。
func (s *Server) handleUpdateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "リクエストボディのJSONが不正です"})
			return
		}

		body, err := s.orderClient.Put(c.Request.Context(), "/orders/"+c.Param("id"), payload)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	}
}

// handleDeleteOrder は注文削除をバックエンドへ転送するハンドラを返す。
func (s *Server) handleDeleteOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := s.orderClient.Delete(c.Request.Context(), "/orders/"+c.Param("id"))
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	}
}

// handleFinishOrder は注文を完了状態へ更新し、完了イベントをキューへ発行する
// ハンドラを返す。バックエンドの更新成功後にイベント発行が失敗した場合、
// 注文は完了済みのまま通知だけが送られない。この部分完了は呼び出し元へ
// 区別可能なエラーとして通知する（ロールバックは行わない）。
func (s *Server) handleFinishOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("id")
		ctx := c.Request.Context()

		body, err := s.orderClient.Put(ctx, "/orders/"+orderID, gin.H{"order_status": "completed"})
		if err != nil {
			s.renderError(c, err)
			return
		}

		messageID, err := s.publisher.Publish(ctx, event.NewOrderCompleted(orderID))
		if err != nil {
			s.logPublishFailure(c, orderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"detail": fmt.Sprintf("注文%sは完了しましたが、完了イベントの発行に失敗しました", orderID),
			})
			return
		}

		result, err := decodeObject(body)
		if err != nil {
			s.renderError(c, err)
			return
		}
		result["queue_message_id"] = messageID
		c.JSON(http.StatusOK, result)
	}
}

// submitOrderRequest は注文提出リクエストのボディ。
// orderは注文サービスへそのまま転送されるペイロード、
// paymentは決済情報でextras.paymentとして注文へ合成される。
type submitOrderRequest struct {
	Order   map[string]any `json:"order" binding:"required"`
	Payment map[string]any `json:"payment" binding:"required"`
}

// handleSubmitOrder は注文提出の複合オペレーションを行うハンドラを返す。
// 処理順序は (1) 決済情報をextras.paymentへ合成し決済日時を記録、
// (2) 注文ステータスをcompletedへ強制、(3) 注文作成をバックエンドへ依頼、
// (4) 作成された注文IDで完了イベントをキューへ発行、である。
// (4)が失敗しても(3)は取り消されない（部分完了。ロールバックは行わない）。
func (s *Server) handleSubmitOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "orderとpaymentを含むJSONボディが必要です"})
			return
		}
		ctx := c.Request.Context()

		payment := make(map[string]any, len(req.Payment)+1)
		for k, v := range req.Payment {
			payment[k] = v
		}
		payment["paid_at"] = time.Now().UTC().Format(time.RFC3339)

		order := req.Order
		extras, ok := order["extras"].(map[string]any)
		if !ok {
			extras = map[string]any{}
		}
		extras["payment"] = payment
		order["extras"] = extras
		order["order_status"] = "completed"

		created, err := s.orderClient.Post(ctx, "/orders", order)
		if err != nil {
			s.renderError(c, err)
			return
		}

		createdOrder, err := decodeObject(created)
		if err != nil {
			s.renderError(c, err)
			return
		}
		orderID := jsonFieldString(createdOrder["id"])

		messageID, err := s.publisher.Publish(ctx, event.NewOrderCompleted(orderID))
		if err != nil {
			s.logPublishFailure(c, orderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"detail": fmt.Sprintf("注文%sは作成されましたが、完了イベントの発行に失敗しました", orderID),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_id":         createdOrder["id"],
			"status":           "completed",
			"queue_message_id": messageID,
		})
	}
}

// logPublishFailure は完了イベント発行の失敗をログへ記録する。
func (s *Server) logPublishFailure(c *gin.Context, orderID string, err error) {
	logEvent := s.logger.Error().Err(err).Str("order_id", orderID)
	if id, ok := correlationID(c); ok {
		logEvent = logEvent.Str("correlation_id", id)
	}
	logEvent.Msg("completion event publish failed")
}

// jsonFieldString はJSONデコード結果のフィールド値を文字列表現へ変換する。
// 注文IDは文字列・数値いずれの形でも返り得るため、両方を受け付ける。
func jsonFieldString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}
