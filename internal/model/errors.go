// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントに返す原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, system
	Action   string // クライアント向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidIdentityToken  = "INVALID_IDENTITY_TOKEN"
	ErrCodeDirectoryUnavailable  = "DIRECTORY_UNAVAILABLE"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeUnsupportedMediaType  = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeInvalidUpload         = "INVALID_UPLOAD"
	ErrCodeInvalidRating         = "INVALID_RATING"
)

// NewInvalidIdentityTokenError はIDトークン検証失敗エラーを生成する。
// 署名不正・audience不一致・期限切れ・不正形式はすべてこのエラーに集約する。
func NewInvalidIdentityTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidIdentityToken,
		Message:  "Authentication failed",
		Category: "auth",
		Action:   "Sign in with Google again.",
	}
}

// NewDirectoryUnavailableError はユーザーディレクトリのストレージ障害エラーを生成する。
func NewDirectoryUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeDirectoryUnavailable,
		Message:  "Authentication failed",
		Category: "system",
		Action:   "Try again in a moment.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
// セッションCookieの欠落と無効は同一に扱う。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Unauthorized",
		Category: "auth",
		Action:   "Log in to continue.",
	}
}

// NewForbiddenError はロール不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Forbidden",
		Category: "auth",
		Action:   "This action requires the admin role.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewProductNotFoundError は商品が見つからない場合のエラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  "Product not found",
		Category: "catalog",
		Action:   fmt.Sprintf("Check the product id: %s", productID),
	}
}

// NewInvalidRequestError はリクエスト形式不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
		Action:   "Fix the request payload and retry.",
	}
}

// NewUnsupportedMediaTypeError はContent-Type不正エラーを生成する。
func NewUnsupportedMediaTypeError() *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedMediaType,
		Message:  "Content-Type must be multipart/form-data",
		Category: "validation",
		Action:   "Send the request as multipart/form-data.",
	}
}

// NewInvalidUploadError はアップロードファイル不正エラーを生成する。
func NewInvalidUploadError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUpload,
		Message:  fmt.Sprintf("Invalid upload: %s", reason),
		Category: "validation",
		Action:   "Upload a jpg, jpeg, png, webp or gif image within the size limit.",
	}
}

// NewInvalidRatingError は評価値不正エラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("Invalid rating: %d", rating),
		Category: "validation",
		Action:   "Rating must be between 1 and 5.",
	}
}
