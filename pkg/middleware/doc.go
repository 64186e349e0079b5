// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// JWT認証トークンの検証、相関ID付きリクエストログ、パニックリカバリ、
// CORS設定など、gatewayの全ルートで共通して使用するミドルウェアを含む。
package middleware
