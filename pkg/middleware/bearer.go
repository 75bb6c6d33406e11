package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nao1215/filegate/pkg/apperr"
	"github.com/nao1215/filegate/pkg/identity"
)

// contextKeyIdentity はGinコンテキストに検証済みIdentityを格納するキー。
const contextKeyIdentity = "identity"

// BearerAuth はAuthorizationヘッダーのBearerトークンを検証するGinミドルウェアを返す。
// 検証はverifierに委譲し、成功した場合はコンテキストにIdentityを設定する。
// ヘッダーが無い・形式が不正な場合はverifierを呼び出さずに401を返す。
func BearerAuth(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextKeyIdentity, id)
		c.Next()
	}
}

// ExtractBearerToken はAuthorizationヘッダーの値からトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.New(apperr.KindUnauthenticated, "Authorizationヘッダーが必要です")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", apperr.New(apperr.KindUnauthenticated, "Bearer トークン形式が不正です")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.New(apperr.KindUnauthenticated, "Bearer トークン形式が不正です")
	}
	return token, nil
}

// GetIdentity はGinコンテキストから検証済みIdentityを取得する。
// BearerAuthミドルウェアが事前に適用されている必要がある。
func GetIdentity(c *gin.Context) *identity.Identity {
	v, _ := c.Get(contextKeyIdentity)
	if id, ok := v.(*identity.Identity); ok {
		return id
	}
	return nil
}

// AbortWithError はエラーを分類してJSONで応答し、以降のハンドラを中断する。
// レスポンスにはクライアント向けのメッセージのみを含め、原因はログに出力する。
func AbortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	if kind == apperr.KindUnauthenticated || kind == apperr.KindUpstreamUnavailable {
		c.Header("WWW-Authenticate", "Bearer")
	}

	// 上流でスパンが開始されていれば拒否理由を記録する
	span := trace.SpanFromContext(c.Request.Context())
	span.SetAttributes(attribute.String("filegate.error_kind", kind.String()))
	span.SetStatus(codes.Error, kind.String())

	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	slog.Log(c.Request.Context(), level, "リクエストを拒否しました",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"kind", kind.String(),
		"status", status,
		"error", err)

	c.AbortWithStatusJSON(status, gin.H{"error": apperr.MessageOf(err)})
}
