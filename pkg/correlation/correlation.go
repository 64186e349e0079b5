// Package correlation はリクエスト単位の相関IDを管理する。
//
// 相関IDは1つのインバウンドリクエストと、その処理中に発生する
// すべてのアウトバウンド呼び出しに付与される不透明なトークンであり、
// サービスをまたいだログ・トレースの突き合わせに使用する。
// IDはcontext.Contextに格納されるため、リクエストのライフタイムを
// 超えて残存せず、並行リクエスト間で混ざることもない。
package correlation

import "context"

// HeaderKey は相関IDを伝搬するHTTPヘッダーのキー。
// インバウンドレスポンスとアウトバウンドリクエストの両方で使用する。
const HeaderKey = "X-Correlation-ID"

// contextKey はコンテキストキーの型。
type contextKey struct{}

// WithID はコンテキストに相関IDを設定する。
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext はコンテキストから相関IDを取得する。
// 設定されていない場合は空文字列とfalseを返す。
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
