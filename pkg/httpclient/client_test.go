package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/nao1215/sportgw/pkg/correlation"
)

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストパス。
	Path string
	// RawQuery はクエリ文字列。
	RawQuery string
	// Body はリクエストボディ。
	Body []byte
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// recordingServer は受け取ったリクエストを記録するテストサーバーを生成する。
// statusとresponseBodyで応答内容を指定する。
func recordingServer(t *testing.T, status int, responseBody string) (*httptest.Server, func() []testRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []testRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, testRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Body:     body,
			Headers:  r.Header.Clone(),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)

	recorded := func() []testRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]testRequest(nil), requests...)
	}
	return server, recorded
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("クライアントが正常に生成されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080")
		if client == nil {
			t.Fatal("New()がnilを返した")
		}
		if client.baseURL != "http://localhost:8080" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8080")
		}
	})

	t.Run("ベースURL末尾のスラッシュが除去されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080/")
		if client.baseURL != "http://localhost:8080" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8080")
		}
	})

	t.Run("タイムアウトが30秒に設定されていること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080")
		if client.httpClient.Timeout != defaultTimeout {
			t.Errorf("Timeout = %v, want %v", client.httpClient.Timeout, defaultTimeout)
		}
	})
}

// TestDoURLResolution はURL解決の正規化を検証する。
func TestDoURLResolution(t *testing.T) {
	t.Parallel()

	t.Run("パス先頭にスラッシュがあってもなくても同じURLに解決されること", func(t *testing.T) {
		t.Parallel()

		server, recorded := recordingServer(t, http.StatusOK, `{}`)
		client := New(server.URL + "/")

		if _, err := client.Do(context.Background(), http.MethodGet, "/orders", nil, nil, nil); err != nil {
			t.Fatalf("Do()でエラーが発生: %v", err)
		}
		if _, err := client.Do(context.Background(), http.MethodGet, "orders", nil, nil, nil); err != nil {
			t.Fatalf("Do()でエラーが発生: %v", err)
		}

		requests := recorded()
		if len(requests) != 2 {
			t.Fatalf("リクエスト数 = %d, want 2", len(requests))
		}
		if requests[0].Path != "/orders" {
			t.Errorf("1回目のパス = %q, want %q", requests[0].Path, "/orders")
		}
		if requests[0].Path != requests[1].Path {
			t.Errorf("パスが一致しない: %q vs %q", requests[0].Path, requests[1].Path)
		}
	})

	t.Run("同じパラメータで繰り返し呼び出しても同一のクエリ文字列になること", func(t *testing.T) {
		t.Parallel()

		server, recorded := recordingServer(t, http.StatusOK, `[]`)
		client := New(server.URL)

		params := url.Values{}
		params.Set("sport", "tennis")
		params.Set("limit", "10")

		for i := 0; i < 3; i++ {
			if _, err := client.Get(context.Background(), "/orders", params); err != nil {
				t.Fatalf("Get()でエラーが発生: %v", err)
			}
		}

		requests := recorded()
		if len(requests) != 3 {
			t.Fatalf("リクエスト数 = %d, want 3", len(requests))
		}
		for i, r := range requests {
			if r.RawQuery != requests[0].RawQuery {
				t.Errorf("%d回目のクエリ = %q, want %q", i+1, r.RawQuery, requests[0].RawQuery)
			}
		}
		query, err := url.ParseQuery(requests[0].RawQuery)
		if err != nil {
			t.Fatalf("クエリ文字列のパースに失敗: %v", err)
		}
		if got := query.Get("sport"); got != "tennis" {
			t.Errorf("sport = %q, want %q", got, "tennis")
		}
		if len(query["sport"]) != 1 {
			t.Errorf("sportパラメータの個数 = %d, want 1", len(query["sport"]))
		}
	})
}

// TestDoRequestBody はリクエストボディの扱いを検証する。
func TestDoRequestBody(t *testing.T) {
	t.Parallel()

	t.Run("ボディがJSONシリアライズされて送信されること", func(t *testing.T) {
		t.Parallel()

		server, recorded := recordingServer(t, http.StatusOK, `{}`)
		client := New(server.URL)

		body := map[string]any{"name": "ガット張り", "rating": 5}
		if _, err := client.Post(context.Background(), "/reviews", body); err != nil {
			t.Fatalf("Post()でエラーが発生: %v", err)
		}

		requests := recorded()
		if len(requests) != 1 {
			t.Fatalf("リクエスト数 = %d, want 1", len(requests))
		}
		var sent map[string]any
		if err := json.Unmarshal(requests[0].Body, &sent); err != nil {
			t.Fatalf("送信ボディのパースに失敗: %v", err)
		}
		if sent["name"] != "ガット張り" {
			t.Errorf("name = %v, want %q", sent["name"], "ガット張り")
		}
		if requests[0].Headers.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want %q", requests[0].Headers.Get("Content-Type"), "application/json")
		}
	})

	t.Run("ボディがnilの場合は何も送信されないこと", func(t *testing.T) {
		t.Parallel()

		server, recorded := recordingServer(t, http.StatusOK, `{}`)
		client := New(server.URL)

		if _, err := client.Get(context.Background(), "/orders", nil); err != nil {
			t.Fatalf("Get()でエラーが発生: %v", err)
		}

		requests := recorded()
		if len(requests[0].Body) != 0 {
			t.Errorf("ボディ = %q, want 空", requests[0].Body)
		}
	})
}

// TestDoCorrelationHeader は相関IDヘッダーの注入を検証する。
func TestDoCorrelationHeader(t *testing.T) {
	t.Parallel()

	t.Run("コンテキストに相関IDがある場合ヘッダーへ付与されること", func(t *testing.T) {
		t.Parallel()

		server, recorded := recordingServer(t, http.StatusOK, `{}`)
		client := New(server.URL)

		ctx := correlation.WithID(context.Background(), "corr-abc")
		if _, err := client.Get(ctx, "/orders", nil); err != nil {
			t.Fatalf("Get()でエラーが発生: %v", err)
		}

		requests := recorded()
		if got := requests[0].Headers.Get(correlation.HeaderKey); got != "corr-abc" {
			t.Errorf("%sヘッダー = %q, want %q", correlation.HeaderKey, got, "corr-abc")
		}
	})

	t.Run("コンテキストに相関IDがない場合ヘッダーは付与されないこと", func(t *testing.T) {
		t.Parallel()

		server, recorded := recordingServer(t, http.StatusOK, `{}`)
		client := New(server.URL)

		if _, err := client.Get(context.Background(), "/orders", nil); err != nil {
			t.Fatalf("Get()でエラーが発生: %v", err)
		}

		requests := recorded()
		if got := requests[0].Headers.Get(correlation.HeaderKey); got != "" {
			t.Errorf("%sヘッダー = %q, want 空", correlation.HeaderKey, got)
		}
	})

	t.Run("追加ヘッダーが転送されること", func(t *testing.T) {
		t.Parallel()

		server, recorded := recordingServer(t, http.StatusOK, `{}`)
		client := New(server.URL)

		headers := http.Header{}
		headers.Set("X-Request-Source", "gateway")
		if _, err := client.Do(context.Background(), http.MethodGet, "/orders", nil, nil, headers); err != nil {
			t.Fatalf("Do()でエラーが発生: %v", err)
		}

		requests := recorded()
		if got := requests[0].Headers.Get("X-Request-Source"); got != "gateway" {
			t.Errorf("X-Request-Sourceヘッダー = %q, want %q", got, "gateway")
		}
	})
}

// TestDoErrorHandling はエラー変換を検証する。
func TestDoErrorHandling(t *testing.T) {
	t.Parallel()

	t.Run("バックエンドの404がステータスとボディごと透過されること", func(t *testing.T) {
		t.Parallel()

		server, _ := recordingServer(t, http.StatusNotFound, `{"error":"not found"}`)
		client := New(server.URL)

		_, err := client.Get(context.Background(), "/orders/missing", nil)
		var backendErr *Error
		if !errors.As(err, &backendErr) {
			t.Fatalf("*Error型のエラーを期待したが %T が返った", err)
		}
		if backendErr.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want %d", backendErr.StatusCode, http.StatusNotFound)
		}
		if backendErr.Message != `{"error":"not found"}` {
			t.Errorf("Message = %q, want %q", backendErr.Message, `{"error":"not found"}`)
		}
	})

	t.Run("エラーボディが空の場合はステータステキストが使われること", func(t *testing.T) {
		t.Parallel()

		server, _ := recordingServer(t, http.StatusBadGateway, "")
		client := New(server.URL)

		_, err := client.Get(context.Background(), "/orders", nil)
		var backendErr *Error
		if !errors.As(err, &backendErr) {
			t.Fatalf("*Error型のエラーを期待したが %T が返った", err)
		}
		if backendErr.Message != http.StatusText(http.StatusBadGateway) {
			t.Errorf("Message = %q, want %q", backendErr.Message, http.StatusText(http.StatusBadGateway))
		}
	})

	t.Run("バックエンドに到達できない場合はどのメソッドでも503になること", func(t *testing.T) {
		t.Parallel()

		// サーバーを即座に閉じて到達不能にする
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		server.Close()
		client := New(server.URL)

		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
			_, err := client.Do(context.Background(), method, "/orders", nil, nil, nil)
			var backendErr *Error
			if !errors.As(err, &backendErr) {
				t.Fatalf("method=%s: *Error型のエラーを期待したが %T が返った", method, err)
			}
			if backendErr.StatusCode != http.StatusServiceUnavailable {
				t.Errorf("method=%s: StatusCode = %d, want %d", method, backendErr.StatusCode, http.StatusServiceUnavailable)
			}
		}
	})
}

// TestDoSuccessBody は成功時のレスポンスボディの扱いを検証する。
func TestDoSuccessBody(t *testing.T) {
	t.Parallel()

	t.Run("レスポンスボディがそのまま返ること", func(t *testing.T) {
		t.Parallel()

		server, _ := recordingServer(t, http.StatusOK, `{"id":"order-1","order_status":"pending"}`)
		client := New(server.URL)

		body, err := client.Get(context.Background(), "/orders/order-1", nil)
		if err != nil {
			t.Fatalf("Get()でエラーが発生: %v", err)
		}
		if string(body) != `{"id":"order-1","order_status":"pending"}` {
			t.Errorf("body = %s, want 元のレスポンスボディ", body)
		}
	})

	t.Run("2xxでボディが空の場合は空のJSONオブジェクトが返ること", func(t *testing.T) {
		t.Parallel()

		server, _ := recordingServer(t, http.StatusNoContent, "")
		client := New(server.URL)

		body, err := client.Delete(context.Background(), "/orders/order-1")
		if err != nil {
			t.Fatalf("Delete()でエラーが発生: %v", err)
		}
		if string(body) != "{}" {
			t.Errorf("body = %s, want {}", body)
		}
	})
}

// TestDoAsync は非同期呼び出しが同期呼び出しと同じ結果を返すことを検証する。
func TestDoAsync(t *testing.T) {
	t.Parallel()

	t.Run("成功時に同期呼び出しと同じボディが返ること", func(t *testing.T) {
		t.Parallel()

		server, _ := recordingServer(t, http.StatusOK, `{"id":"order-9"}`)
		client := New(server.URL)

		syncBody, syncErr := client.Do(context.Background(), http.MethodGet, "/orders/order-9", nil, nil, nil)
		result := <-client.DoAsync(context.Background(), http.MethodGet, "/orders/order-9", nil, nil, nil)

		if syncErr != nil || result.Err != nil {
			t.Fatalf("エラーが発生: sync=%v, async=%v", syncErr, result.Err)
		}
		if string(syncBody) != string(result.Body) {
			t.Errorf("ボディが一致しない: sync=%s, async=%s", syncBody, result.Body)
		}
	})

	t.Run("失敗時に同期呼び出しと同じステータスのエラーが返ること", func(t *testing.T) {
		t.Parallel()

		server, _ := recordingServer(t, http.StatusNotFound, `{"error":"not found"}`)
		client := New(server.URL)

		_, syncErr := client.Do(context.Background(), http.MethodGet, "/orders/x", nil, nil, nil)
		result := <-client.DoAsync(context.Background(), http.MethodGet, "/orders/x", nil, nil, nil)

		var syncBackendErr, asyncBackendErr *Error
		if !errors.As(syncErr, &syncBackendErr) || !errors.As(result.Err, &asyncBackendErr) {
			t.Fatalf("*Error型のエラーを期待したが sync=%T, async=%T が返った", syncErr, result.Err)
		}
		if syncBackendErr.StatusCode != asyncBackendErr.StatusCode {
			t.Errorf("StatusCodeが一致しない: sync=%d, async=%d", syncBackendErr.StatusCode, asyncBackendErr.StatusCode)
		}
		if syncBackendErr.Message != asyncBackendErr.Message {
			t.Errorf("Messageが一致しない: sync=%q, async=%q", syncBackendErr.Message, asyncBackendErr.Message)
		}
	})
}

// TestVerbHelpers はメソッド別のヘルパーが正しいHTTPメソッドを使うことを検証する。
func TestVerbHelpers(t *testing.T) {
	t.Parallel()

	server, recorded := recordingServer(t, http.StatusOK, `{}`)
	client := New(server.URL)
	ctx := context.Background()

	if _, err := client.Get(ctx, "/orders", nil); err != nil {
		t.Fatalf("Get()でエラーが発生: %v", err)
	}
	if _, err := client.Post(ctx, "/orders", map[string]any{"sport": "tennis"}); err != nil {
		t.Fatalf("Post()でエラーが発生: %v", err)
	}
	if _, err := client.Put(ctx, "/orders/1", map[string]any{"order_status": "completed"}); err != nil {
		t.Fatalf("Put()でエラーが発生: %v", err)
	}
	if _, err := client.Delete(ctx, "/orders/1"); err != nil {
		t.Fatalf("Delete()でエラーが発生: %v", err)
	}

	requests := recorded()
	want := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
	if len(requests) != len(want) {
		t.Fatalf("リクエスト数 = %d, want %d", len(requests), len(want))
	}
	for i, method := range want {
		if requests[i].Method != method {
			t.Errorf("%d番目のメソッド = %q, want %q", i, requests[i].Method, method)
		}
	}
}
