package apperr

import (
	"errors"
	"net/http"
)

// Kind はエラーの種類を表す。
type Kind int

const (
	// KindInternal は想定外のファイルシステムエラー等を表す。
	KindInternal Kind = iota
	// KindUnauthenticated はトークンの欠落・無効・期限切れを表す。
	KindUnauthenticated
	// KindUpstreamUnavailable はIDプロバイダーへの接続失敗またはタイムアウトを表す。
	KindUpstreamUnavailable
	// KindNotFound はパスが存在しないことを表す。
	KindNotFound
	// KindInvalidType はパスは存在するが操作に対して種類が異なることを表す。
	KindInvalidType
	// KindAccessDenied はサンドボックス外へのアクセス、またはOSの権限エラーを表す。
	KindAccessDenied
)

// String はKindの名前を返す。
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindNotFound:
		return "not_found"
	case KindInvalidType:
		return "invalid_type"
	case KindAccessDenied:
		return "access_denied"
	default:
		return "internal"
	}
}

// HTTPStatus はKindに対応するHTTPステータスコードを返す。
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidType:
		return http.StatusBadRequest
	case KindAccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error は分類済みのアプリケーションエラー。
// Messageはクライアントに返してよい文言のみを持ち、詳細な原因はErrに保持する。
type Error struct {
	// Kind はエラーの種類。
	Kind Kind
	// Message はクライアント向けのメッセージ。
	Message string
	// Err は元となったエラー。ログ出力専用。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap は元となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// New は原因を持たないエラーを生成する。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap は原因となるエラーを保持したエラーを生成する。
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf はエラーチェーンからKindを取り出す。
// 分類されていないエラーはKindInternalとして扱う。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf はクライアントに返すメッセージを取り出す。
// 分類されていないエラーの内容は外部に漏らさない。
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "内部サーバーエラーが発生しました"
}
