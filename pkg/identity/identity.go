package identity

import "context"

// Identity はIDプロバイダーが返した認証済みユーザーの情報。
// リクエストごとに生成され、永続化されない。
type Identity struct {
	// SubjectID はユーザーの一意識別子。
	SubjectID string `json:"user_id"`
	// DisplayName は表示名。
	DisplayName string `json:"user_name"`
	// PrincipalEmail はユーザープリンシパル名（通常はメールアドレス）。
	PrincipalEmail string `json:"email"`
	// GivenName は名。
	GivenName string `json:"given_name"`
	// Surname は姓。
	Surname string `json:"surname"`
	// JobTitle は役職。
	JobTitle string `json:"job_title"`
	// OfficeLocation は勤務地。
	OfficeLocation string `json:"office_location"`
}

// Verifier はBearerトークンを検証してIdentityを返す。
// 失敗時は apperr.KindUnauthenticated または apperr.KindUpstreamUnavailable のエラーを返す。
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// VerifierFunc は関数をVerifierとして扱うためのアダプタ。
type VerifierFunc func(ctx context.Context, token string) (*Identity, error)

// Verify はf(ctx, token)を呼び出す。
func (f VerifierFunc) Verify(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}
