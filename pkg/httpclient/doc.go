// Package httpclient はバックエンドサービスとのHTTP通信を行うクライアントを提供する。
//
// gatewayが注文サービス・レビューサービス・外部天気APIを呼び出す際に使用する。
// 相関IDの伝播、エラーステータスの透過、トランスポート障害時の503変換など、
// バックエンド通信のパターンを統一する。
package httpclient
