// Package event はキューへ発行するビジネスイベントの型定義を提供する。
//
// イベントは注文完了などの業務上重要な出来事を表し、gatewayから
// メッセージキューへ非同期に通知される。gateway自身はイベントを
// 永続化しない。
package event

import "time"

// Type はイベントの種類を表す。閉じた列挙型であり、
// 新しい種類を追加する場合はここに定数を追加する。
type Type string

const (
	// TypeOrderCompleted は注文が完了したことを表す。
	TypeOrderCompleted Type = "order_completed"
)

// Event はキューへ発行されるイベントのペイロード。
type Event struct {
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// SubjectID はイベントの対象となるエンティティの識別子。
	SubjectID string `json:"subject_id"`
	// Timestamp はイベントが発生した日時（UTC）。
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderCompleted は注文完了イベントを生成する。
// orderIDには完了した注文の識別子を指定する。
func NewOrderCompleted(orderID string) *Event {
	return &Event{
		EventType: TypeOrderCompleted,
		SubjectID: orderID,
		Timestamp: time.Now().UTC(),
	}
}
