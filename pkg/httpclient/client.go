package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/sportgw/pkg/correlation"
)

// defaultTimeout はバックエンド呼び出しのデフォルトタイムアウト。
// ハングしたバックエンドを無期限に待たないための上限として30秒を採用している。
const defaultTimeout = 30 * time.Second

// Client はバックエンドサービス通信用のHTTPクライアント。
// 1つのインスタンスが1つのバックエンドのベースURLに紐づく。
// ベースURL以外に可変状態を持たないため、複数リクエストから
// 並行に再利用できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。末尾のスラッシュは除去済み。
	baseURL string
}

// New は新しいバックエンド通信用HTTPクライアントを生成する。
// baseURLには接続先サービスのベースURL（例: "http://order-service:8004"）を指定する。
// タイムアウトはdefaultTimeout（30秒）。
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Error はバックエンド呼び出しの失敗を表す。
// StatusCodeはそのままgatewayの呼び出し元へ返すHTTPステータスコードとなる。
type Error struct {
	// StatusCode はバックエンドが返したHTTPステータスコード。
	// トランスポート障害（接続不可・タイムアウト）の場合は503固定。
	StatusCode int
	// Message はバックエンドのレスポンスボディ、または障害の説明。
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("バックエンドエラー: status=%d, message=%s", e.StatusCode, e.Message)
}

// Result は非同期呼び出しの結果。
type Result struct {
	// Body はレスポンスボディ。
	Body json.RawMessage
	// Err は呼び出しに失敗した場合のエラー。
	Err error
}

// Do は指定メソッドでバックエンドへHTTPリクエストを送信する。
//   - URLはベースURLとpathをスラッシュ1つで結合して解決する。
//   - bodyが非nilの場合のみJSONシリアライズして送信する。
//   - paramsはクエリ文字列としてエンコードする（nil可）。
//   - コンテキストに相関IDがあればヘッダーに付与する。
//
// バックエンドが2xx以外を返した場合は、そのステータスコードとボディを
// そのまま保持した*Errorを返す。トランスポート障害の場合は503の*Errorを返す。
// 2xxでボディが空の場合は空のJSONオブジェクトを返す。
func (c *Client) Do(ctx context.Context, method, path string, body any, params url.Values, headers http.Header) (json.RawMessage, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	requestURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	// コンテキストから相関IDを伝播する
	if id, ok := correlation.FromContext(ctx); ok {
		req.Header.Set(correlation.HeaderKey, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{
			StatusCode: http.StatusServiceUnavailable,
			Message:    fmt.Sprintf("service unavailable: %s", req.URL.Host),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := string(respBody)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: message}
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(respBody), nil
}

// DoAsync はDoと同じリクエストを非同期に実行し、結果をチャネルで返す。
// リクエスト処理の実体はDoに一本化されており、同じ入力に対して
// 同期・非同期どちらの呼び出しでも結果は一致する。
func (c *Client) DoAsync(ctx context.Context, method, path string, body any, params url.Values, headers http.Header) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		respBody, err := c.Do(ctx, method, path, body, params, headers)
		ch <- Result{Body: respBody, Err: err}
	}()
	return ch
}

// Get は指定パスにGETリクエストを送信する。
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, nil, params, nil)
}

// Post は指定パスにJSONボディでPOSTリクエストを送信する。
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, body, nil, nil)
}

// Put は指定パスにJSONボディでPUTリクエストを送信する。
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, body, nil, nil)
}

// Delete は指定パスにDELETEリクエストを送信する。
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}
