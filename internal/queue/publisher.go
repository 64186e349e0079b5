// Package queue はビジネスイベントをメッセージキューへ発行する。
//
// 発行されたメッセージはJSONボディとイベント種別を示す文字列属性を持ち、
// メッセージIDが呼び出し元へ返される。gateway自身はメッセージを
// 消費しない（通知サービス等の別プロセスが消費する）。
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nao1215/sportgw/pkg/correlation"
	"github.com/nao1215/sportgw/pkg/event"
)

// Publisher はイベントをキューへ発行するインターフェース。
// 発行に成功した場合、プロバイダが割り当てたメッセージIDを返す。
type Publisher interface {
	// Publish はイベントをキューへ発行し、メッセージIDを返す。
	Publish(ctx context.Context, ev *event.Event) (string, error)
}

// AMQPPublisher はRabbitMQへイベントを発行するPublisher実装。
type AMQPPublisher struct {
	// conn はRabbitMQへの接続。
	conn *amqp.Connection
	// channel は発行用チャネル。
	channel *amqp.Channel
	// queueName は発行先のキュー名。
	queueName string
}

// Connect はRabbitMQへ接続し、発行先キューを宣言してPublisherを生成する。
// キューはdurableとして宣言される。
func Connect(url, queueName string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQへの接続に失敗: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネルのオープンに失敗: %w", err)
	}

	if _, err := channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("キュー%qの宣言に失敗: %w", queueName, err)
	}

	return &AMQPPublisher{
		conn:      conn,
		channel:   channel,
		queueName: queueName,
	}, nil
}

// Publish はイベントをJSONとしてキューへ発行する。
// イベント種別は文字列型のヘッダー属性event_typeとして付与され、
// コンテキストに相関IDがあればそれもヘッダーへ伝播する。
// 戻り値は発行したメッセージのID。
func (p *AMQPPublisher) Publish(ctx context.Context, ev *event.Event) (string, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}

	headers := amqp.Table{
		"event_type": string(ev.EventType),
	}
	if id, ok := correlation.FromContext(ctx); ok {
		headers["correlation_id"] = id
	}

	messageID := uuid.New().String()
	err = p.channel.PublishWithContext(ctx,
		"", p.queueName, false, false,
		amqp.Publishing{
			MessageId:    messageID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
			Timestamp:    ev.Timestamp,
			Body:         body,
		})
	if err != nil {
		return "", fmt.Errorf("イベントの発行に失敗: %w", err)
	}
	return messageID, nil
}

// Close は発行用チャネルと接続を閉じる。
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return fmt.Errorf("チャネルのクローズに失敗: %w", err)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("接続のクローズに失敗: %w", err)
	}
	return nil
}
