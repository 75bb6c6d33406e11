package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/filegate/pkg/apperr"
	"github.com/nao1215/filegate/pkg/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubVerifier は固定のトークンのみを有効とするテスト用Verifierを返す。
// calledには呼び出し回数が記録される。
func stubVerifier(validToken string, called *int) identity.Verifier {
	return identity.VerifierFunc(func(_ context.Context, token string) (*identity.Identity, error) {
		*called++
		if token != validToken {
			return nil, apperr.New(apperr.KindUnauthenticated, "トークンが期限切れまたは無効です")
		}
		return &identity.Identity{SubjectID: "user-123", DisplayName: "テストユーザー"}, nil
	})
}

// newBearerRouter はBearerAuthを適用したテスト用ルーターを生成する。
func newBearerRouter(verifier identity.Verifier) *gin.Engine {
	router := gin.New()
	router.Use(BearerAuth(verifier))
	router.GET("/protected", func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.SubjectID})
	})
	return router
}

// TestBearerAuth はBearerAuthミドルウェアを検証する。
func TestBearerAuth(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンでリクエストが通りIdentityが設定されること", func(t *testing.T) {
		t.Parallel()

		called := 0
		router := newBearerRouter(stubVerifier("good", &called))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["user_id"] != "user-123" {
			t.Errorf("user_id = %q, want %q", body["user_id"], "user-123")
		}
		if called != 1 {
			t.Errorf("Verify呼び出し回数 = %d, want 1", called)
		}
	})

	t.Run("Authorizationヘッダーが無い場合はVerifierを呼ばずに401を返すこと", func(t *testing.T) {
		t.Parallel()

		called := 0
		router := newBearerRouter(stubVerifier("good", &called))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
		}
		if called != 0 {
			t.Errorf("Verify呼び出し回数 = %d, want 0", called)
		}
	})

	t.Run("Bearer以外のスキームは401を返すこと", func(t *testing.T) {
		t.Parallel()

		called := 0
		router := newBearerRouter(stubVerifier("good", &called))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if called != 0 {
			t.Errorf("Verify呼び出し回数 = %d, want 0", called)
		}
	})

	t.Run("無効なトークンの場合は401を返すこと", func(t *testing.T) {
		t.Parallel()

		called := 0
		router := newBearerRouter(stubVerifier("good", &called))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["error"] != "トークンが期限切れまたは無効です" {
			t.Errorf("error = %q", body["error"])
		}
	})

	t.Run("IDプロバイダーに接続できない場合は503を返すこと", func(t *testing.T) {
		t.Parallel()

		verifier := identity.VerifierFunc(func(context.Context, string) (*identity.Identity, error) {
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "IDプロバイダーに接続できません", errors.New("dial tcp: timeout"))
		})
		router := newBearerRouter(verifier)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer any")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}

// TestExtractBearerToken はトークンの抽出を検証する。
func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "通常のBearerトークン", header: "Bearer abc.def", want: "abc.def"},
		{name: "スキーム名の小文字", header: "bearer abc", want: "abc"},
		{name: "空ヘッダー", header: "", wantErr: true},
		{name: "トークンなし", header: "Bearer ", wantErr: true},
		{name: "スキームのみ", header: "Bearer", wantErr: true},
		{name: "他のスキーム", header: "Token abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractBearerToken(tt.header)
			if tt.wantErr {
				if apperr.KindOf(err) != apperr.KindUnauthenticated {
					t.Errorf("Unauthenticatedが返るべき: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractBearerToken()でエラーが発生: %v", err)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestAbortWithError は分類済みエラーの応答を検証する。
func TestAbortWithError(t *testing.T) {
	t.Parallel()

	t.Run("分類されていないエラーは500で詳細を隠すこと", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.GET("/fail", func(c *gin.Context) {
			AbortWithError(c, errors.New("open /etc/shadow: permission denied"))
		})

		req := httptest.NewRequest(http.MethodGet, "/fail", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["error"] != "内部サーバーエラーが発生しました" {
			t.Errorf("error = %q", body["error"])
		}
	})

	t.Run("NotFoundは404でWWW-Authenticateを付与しないこと", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.GET("/missing", func(c *gin.Context) {
			AbortWithError(c, apperr.New(apperr.KindNotFound, "ファイルが見つかりません"))
		})

		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "" {
			t.Errorf("WWW-Authenticate = %q, want empty string", got)
		}
	})
}
