package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testPayload はテスト用のレスポンスペイロード。
type testPayload struct {
	// Name はテスト用の名前フィールド。
	Name string `json:"name"`
	// Value はテスト用の値フィールド。
	Value int `json:"value"`
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("クライアントが正常に生成されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080", 5*time.Second)
		if client == nil {
			t.Fatal("New()がnilを返した")
		}
		if client.baseURL != "http://localhost:8080" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8080")
		}
		if client.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", client.httpClient.Timeout)
		}
	})

	t.Run("タイムアウト未指定の場合は10秒に設定されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080", 0)
		if client.httpClient.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want 10s", client.httpClient.Timeout)
		}
	})
}

// TestGetJSON はGetJSON関数を検証する。
func TestGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("正常にGETリクエストを送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		var gotMethod, gotPath, gotAccept string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotAccept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(testPayload{Name: "response", Value: 200})
		}))
		defer ts.Close()

		client := New(ts.URL, time.Second)
		var result testPayload
		if err := client.GetJSON(context.Background(), "/v1.0/me", &result); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}

		if gotMethod != http.MethodGet {
			t.Errorf("Method = %q, want %q", gotMethod, http.MethodGet)
		}
		if gotPath != "/v1.0/me" {
			t.Errorf("Path = %q, want %q", gotPath, "/v1.0/me")
		}
		if gotAccept != "application/json" {
			t.Errorf("Accept = %q, want %q", gotAccept, "application/json")
		}
		if result.Name != "response" || result.Value != 200 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("コンテキストのBearerトークンがAuthorizationヘッダーで送信されること", func(t *testing.T) {
		t.Parallel()

		var gotAuth string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		client := New(ts.URL, time.Second)
		ctx := WithBearerToken(context.Background(), "token-abc")
		if err := client.GetJSON(ctx, "", nil); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if gotAuth != "Bearer token-abc" {
			t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer token-abc")
		}
	})

	t.Run("トークンが無い場合はAuthorizationヘッダーが送信されないこと", func(t *testing.T) {
		t.Parallel()

		gotAuth := "unset"
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		client := New(ts.URL, time.Second)
		if err := client.GetJSON(context.Background(), "", nil); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if gotAuth != "" {
			t.Errorf("Authorization = %q, want empty string", gotAuth)
		}
	})

	t.Run("2xx以外のステータスでStatusErrorが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
		}))
		defer ts.Close()

		client := New(ts.URL, time.Second)
		var result testPayload
		err := client.GetJSON(context.Background(), "", &result)

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("StatusErrorが返るべき: %v", err)
		}
		if statusErr.StatusCode != http.StatusForbidden {
			t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusForbidden)
		}
		if statusErr.Body != `{"error":"forbidden"}` {
			t.Errorf("Body = %q", statusErr.Body)
		}
	})

	t.Run("不正なJSONレスポンスでErrDecodeが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer ts.Close()

		client := New(ts.URL, time.Second)
		var result testPayload
		err := client.GetJSON(context.Background(), "", &result)
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("ErrDecodeが返るべき: %v", err)
		}
	})

	t.Run("タイムアウトした場合にStatusErrorでもErrDecodeでもないエラーが返ること", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
			w.Write([]byte(`{}`))
		}))
		defer ts.Close()
		defer close(release)

		client := New(ts.URL, 50*time.Millisecond)
		err := client.GetJSON(context.Background(), "", nil)
		if err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) || errors.Is(err, ErrDecode) {
			t.Errorf("通信エラーとして返るべき: %v", err)
		}
	})

	t.Run("ボディの受信途中でタイムアウトした場合ErrDecodeではないエラーが返ること", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"name":`))
			w.(http.Flusher).Flush()
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer ts.Close()
		defer close(release)

		client := New(ts.URL, 50*time.Millisecond)
		var result testPayload
		err := client.GetJSON(context.Background(), "", &result)
		if err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
		if errors.Is(err, ErrDecode) {
			t.Errorf("受信失敗がErrDecodeとして返された: %v", err)
		}
	})

	t.Run("キャンセルされたコンテキストでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		client := New(ts.URL, time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel() // 即座にキャンセル

		if err := client.GetJSON(ctx, "", nil); err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("接続できないサーバーに対してエラーが返ること", func(t *testing.T) {
		t.Parallel()

		client := New("http://127.0.0.1:1", time.Second)
		if err := client.GetJSON(context.Background(), "", nil); err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
	})
}
