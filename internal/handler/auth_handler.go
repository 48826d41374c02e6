// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mask-shakill/jabotio-dashboard/internal/metrics"
	"github.com/mask-shakill/jabotio-dashboard/internal/middleware"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login はIDトークンを検証し、ユーザーとセッションクレデンシャルを返す。
	Login(ctx context.Context, idToken string) (*model.User, string, error)
	// GetCurrentUser はセッションクレームのユーザーIDでユーザーを取得する。
	GetCurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	CookieDomain  string // 空の場合はホストのみのCookieになる
	SessionMaxAge int    // セッションCookieの有効期間（秒）
}

// AuthHandler はGoogleログイン認証のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	config    AuthHandlerConfig
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		config:    config,
		collector: collector,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Token string `json:"token"`
}

// loginUserResponse はログインレスポンスに含まれるユーザー情報。
type loginUserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ImageURL string `json:"image_url"`
}

// userResponse はユーザープロフィールのAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone"`
	Location  string    `json:"location"`
	Address   string    `json:"address"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Login はGoogleのIDトークンを受け取り、セッションCookieを発行する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.collector.RecordLoginFailure("invalid_request")
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Request body must be valid JSON"))
		return
	}
	if req.Token == "" {
		h.collector.RecordLoginFailure("invalid_request")
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Token is required"))
		return
	}

	user, credential, err := h.service.Login(r.Context(), req.Token)
	if err != nil {
		// 失敗理由はメトリクスでのみ区別し、クライアントには同じ
		// "Authentication failed" を500で返す
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidIdentityToken {
			h.collector.RecordLoginFailure("invalid_token")
		} else {
			h.collector.RecordLoginFailure("directory_unavailable")
		}
		handleServiceError(w, err)
		return
	}

	// セッションクレデンシャルをHTTP Only Cookieに設定する。
	// JavaScriptからは読み取れない。
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    credential,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	h.collector.RecordLoginSuccess()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Login successful",
		"user": loginUserResponse{
			ID:       user.ID,
			Email:    user.Email,
			Name:     user.Name,
			Role:     string(user.Role),
			ImageURL: user.ImageURL,
		},
	})
}

// Logout はセッションCookieを破棄する。
// クレデンシャルはステートレスなため、サーバー側の無効化は行わない。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// 発行時と同じDomain属性で破棄しないとブラウザがCookieを消さない
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Logout successful",
	})
}

// Me は現在のログインユーザーのプロフィールを返す。
// GET /api/auth/user-me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claim, err := middleware.ClaimFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), claim.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user": toUserResponse(user),
	})
}

// --- ヘルパー関数 ---

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		Phone:     user.Phone,
		Location:  user.Location,
		Address:   user.Address,
		ImageURL:  user.ImageURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidIdentityToken, model.ErrCodeDirectoryUnavailable:
		// どちらも "Authentication failed" として500で返し、
		// トークン不正とストレージ障害を外部から区別できないようにする
		return http.StatusInternalServerError
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeProductNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidUpload, model.ErrCodeInvalidRating:
		return http.StatusBadRequest
	case model.ErrCodeUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
