// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, entity, remote, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEntityNotFound    = "ENTITY_NOT_FOUND"
	ErrCodeUnknownEntityKind = "UNKNOWN_ENTITY_KIND"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidSubmission = "INVALID_SUBMISSION"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeLoginFailed       = "LOGIN_FAILED"
	ErrCodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	ErrCodeRemoteFailed      = "REMOTE_FAILED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewEntityNotFoundError はエンティティ未検出エラーを生成する。
func NewEntityNotFoundError(kind EntityKind, bbid string) *APIError {
	return &APIError{
		Code:     ErrCodeEntityNotFound,
		Message:  fmt.Sprintf("%s not found: %s", kind.Title(), bbid),
		Category: "entity",
		Action:   "BBIDを確認してください。",
	}
}

// NewUnknownEntityKindError は未対応のエンティティ種別エラーを生成する。
func NewUnknownEntityKindError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownEntityKind,
		Message:  fmt.Sprintf("未対応のエンティティ種別です: %s", kind),
		Category: "validation",
		Action:   "creator、publisher、work のいずれかを指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidSubmissionError は送信内容の検証エラーを生成する。
func NewInvalidSubmissionError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSubmission,
		Message:  fmt.Sprintf("送信内容が不正です: %s", reason),
		Category: "validation",
		Action:   "エイリアスの名前とソート名を両方入力し、デフォルトを1つ選択してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewLoginFailedError はログイン失敗エラーを生成する。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewRemoteUnavailableError はbbwsが利用できない場合のエラーを生成する。
func NewRemoteUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeRemoteUnavailable,
		Message:  "データサービスが一時的に利用できません。",
		Category: "remote",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRemoteFailedError はbbwsがエラーを返した場合のエラーを生成する。
func NewRemoteFailedError(status int) *APIError {
	return &APIError{
		Code:     ErrCodeRemoteFailed,
		Message:  fmt.Sprintf("データサービスがエラーを返しました (status %d)", status),
		Category: "remote",
		Action:   "入力内容を確認し、しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
