package handler

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"

	"github.com/mask-shakill/jabotio-dashboard/internal/metrics"
	"github.com/mask-shakill/jabotio-dashboard/internal/middleware"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/user"
)

// maxMultipartMemory はマルチパートフォーム解析時のメモリ上限。超過分はディスクに退避される。
const maxMultipartMemory = 10 << 20 // 10MB

// UserServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	UpdateProfile(ctx context.Context, userID string, input *user.ProfileInput) (*model.User, error)
}

// UserHandler はプロフィール編集のHTTPハンドラー。
type UserHandler struct {
	service   UserServiceInterface
	collector metrics.MetricsCollector
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, collector metrics.MetricsCollector) *UserHandler {
	return &UserHandler{
		service:   service,
		collector: collector,
	}
}

// UpdateProfile はログインユーザー自身のプロフィールを部分更新する。
// フォームに含まれなかったフィールドは変更されない。
// PATCH /api/auth/update
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claim, err := middleware.ClaimFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if !isMultipartRequest(r) {
		writeAPIErrorResponse(w, http.StatusUnsupportedMediaType, model.NewUnsupportedMediaTypeError())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Failed to parse multipart form"))
		return
	}

	input := &user.ProfileInput{
		Name:     formValue(r, "name"),
		Phone:    formValue(r, "phone"),
		Location: formValue(r, "location"),
		Address:  formValue(r, "address"),
	}

	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		input.Avatar = file
		input.AvatarHeader = header
	}

	updated, err := h.service.UpdateProfile(r.Context(), claim.UserID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if input.AvatarHeader != nil {
		h.collector.RecordUploadStored(input.AvatarHeader.Size)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Profile updated",
		"user":    toUserResponse(updated),
	})
}

// isMultipartRequest はContent-Typeがmultipart/form-dataであるか判定する。
// boundaryパラメータ付きの値を許容する。
func isMultipartRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "multipart/form-data"
}

// formValue はフォームにフィールドが存在する場合のみ値へのポインタを返す。
// 欠落したフィールドと空文字列のフィールドを区別するために使う。
func formValue(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
