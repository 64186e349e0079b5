// Package gateway はコンポジットAPI Gatewayの内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスであり、インバウンドリクエストの認証、
// 注文サービス・レビューサービス・外部天気APIへの振り分け、レスポンスの集約、
// 注文完了イベントのキューへの発行を担当する。すべてのリクエストには相関IDが
// 付与され、バックエンド呼び出しとログへ伝播される。
package gateway
