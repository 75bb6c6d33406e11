package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nao1215/filegate/pkg/apperr"
	"github.com/nao1215/filegate/pkg/httpclient"
)

// DefaultEndpoint はMicrosoft Graphのユーザー情報エンドポイント。
const DefaultEndpoint = "https://graph.microsoft.com/v1.0/me"

// tracerName はトレーサーの計装スコープ名。
const tracerName = "github.com/nao1215/filegate/pkg/identity"

// graphUser はGraph APIの /me レスポンスのうち使用するフィールド。
// 欠落したフィールドはゼロ値のまま扱う。
type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	GivenName         string `json:"givenName"`
	Surname           string `json:"surname"`
	JobTitle          string `json:"jobTitle"`
	OfficeLocation    string `json:"officeLocation"`
}

// GraphVerifier はGraph API互換のエンドポイントを呼び出してトークンを検証する。
type GraphVerifier struct {
	// client はIDプロバイダー呼び出し用のHTTPクライアント。
	client *httpclient.Client
	// endpoint は呼び出し先のURL。
	endpoint string
}

// NewGraphVerifier は新しいGraphVerifierを生成する。
// endpointが空の場合はDefaultEndpoint、timeoutが0以下の場合は10秒を使用する。
func NewGraphVerifier(endpoint string, timeout time.Duration) *GraphVerifier {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &GraphVerifier{
		client:   httpclient.New(endpoint, timeout),
		endpoint: endpoint,
	}
}

// Verify はトークンをIDプロバイダーに送信し、応答からIdentityを組み立てる。
func (v *GraphVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "identity.verify")
	defer span.End()
	span.SetAttributes(attribute.String("identity.endpoint", v.endpoint))

	var user graphUser
	err := v.client.GetJSON(httpclient.WithBearerToken(ctx, token), "", &user)
	if err != nil {
		classified := classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.KindOf(classified).String())
		return nil, classified
	}

	span.SetAttributes(attribute.Bool("identity.subject_present", user.ID != ""))
	return &Identity{
		SubjectID:      user.ID,
		DisplayName:    user.DisplayName,
		PrincipalEmail: user.UserPrincipalName,
		GivenName:      user.GivenName,
		Surname:        user.Surname,
		JobTitle:       user.JobTitle,
		OfficeLocation: user.OfficeLocation,
	}, nil
}

// classify はHTTPクライアントのエラーを認証エラーの分類に変換する。
func classify(err error) error {
	var statusErr *httpclient.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		return apperr.Wrap(apperr.KindUnauthenticated, "トークンが期限切れまたは無効です", err)
	case errors.As(err, &statusErr):
		return apperr.Wrap(apperr.KindUnauthenticated,
			fmt.Sprintf("トークンの検証に失敗しました: %d", statusErr.StatusCode), err)
	case errors.Is(err, httpclient.ErrDecode):
		return apperr.Wrap(apperr.KindUnauthenticated, "トークンが無効または期限切れです", err)
	default:
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "IDプロバイダーに接続できません", err)
	}
}
