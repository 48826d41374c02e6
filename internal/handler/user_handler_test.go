package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mask-shakill/jabotio-dashboard/internal/middleware"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/user"
)

// --- モック定義 ---

type mockUserService struct {
	updateProfileFunc func(ctx context.Context, userID string, input *user.ProfileInput) (*model.User, error)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID string, input *user.ProfileInput) (*model.User, error) {
	return m.updateProfileFunc(ctx, userID, input)
}

// multipartBody はテスト用のマルチパートボディを構築する。
func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, fileBody string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := io.Copy(fw, strings.NewReader(fileBody)); err != nil {
			t.Fatalf("failed to write file body: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func authedRequest(method, target string, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req.WithContext(middleware.ContextWithClaim(req.Context(), &model.SessionClaim{
		UserID: "user-1",
		Role:   model.RoleUser,
	}))
}

// --- テスト ---

func TestUserHandler_UpdateProfile_FieldsOnly(t *testing.T) {
	var captured *user.ProfileInput
	service := &mockUserService{
		updateProfileFunc: func(ctx context.Context, userID string, input *user.ProfileInput) (*model.User, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q", userID)
			}
			captured = input
			return &model.User{ID: userID, Name: "Aiko", Phone: "090-0000-0000"}, nil
		},
	}
	h := NewUserHandler(service, newMockCollector())

	body, contentType := multipartBody(t, map[string]string{
		"name":  "Aiko",
		"phone": "090-0000-0000",
	}, "", "", "")
	req := authedRequest(http.MethodPatch, "/api/auth/update", body, contentType)
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if captured.Name == nil || *captured.Name != "Aiko" {
		t.Errorf("Name = %v", captured.Name)
	}
	if captured.Phone == nil || *captured.Phone != "090-0000-0000" {
		t.Errorf("Phone = %v", captured.Phone)
	}
	if captured.Location != nil || captured.Address != nil {
		t.Error("absent fields should be nil")
	}
	if captured.Avatar != nil {
		t.Error("avatar should be nil when no file is uploaded")
	}

	var respBody struct {
		Message string       `json:"message"`
		User    userResponse `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if respBody.Message != "Profile updated" {
		t.Errorf("message = %q", respBody.Message)
	}
}

func TestUserHandler_UpdateProfile_WithAvatar(t *testing.T) {
	var captured *user.ProfileInput
	service := &mockUserService{
		updateProfileFunc: func(ctx context.Context, userID string, input *user.ProfileInput) (*model.User, error) {
			captured = input
			return &model.User{ID: userID}, nil
		},
	}
	collector := newMockCollector()
	h := NewUserHandler(service, collector)

	body, contentType := multipartBody(t, nil, "avatar", "avatar.png", "png-bytes")
	req := authedRequest(http.MethodPatch, "/api/auth/update", body, contentType)
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if captured.Avatar == nil || captured.AvatarHeader == nil {
		t.Fatal("avatar file should be passed to the service")
	}
	if captured.AvatarHeader.Filename != "avatar.png" {
		t.Errorf("filename = %q", captured.AvatarHeader.Filename)
	}
	if collector.uploadsStored != 1 {
		t.Errorf("uploadsStored = %d, want 1", collector.uploadsStored)
	}
}

func TestUserHandler_UpdateProfile_NotMultipart_Returns415(t *testing.T) {
	service := &mockUserService{
		updateProfileFunc: func(ctx context.Context, userID string, input *user.ProfileInput) (*model.User, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	h := NewUserHandler(service, newMockCollector())

	req := authedRequest(http.MethodPatch, "/api/auth/update", strings.NewReader(`{"name":"Aiko"}`), "application/json")
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Message != "Content-Type must be multipart/form-data" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestUserHandler_UpdateProfile_NoClaim_Returns401(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, newMockCollector())

	body, contentType := multipartBody(t, map[string]string{"name": "Aiko"}, "", "", "")
	req := httptest.NewRequest(http.MethodPatch, "/api/auth/update", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Result().StatusCode)
	}
}

func TestUserHandler_UpdateProfile_InvalidUpload_Returns400(t *testing.T) {
	service := &mockUserService{
		updateProfileFunc: func(ctx context.Context, userID string, input *user.ProfileInput) (*model.User, error) {
			return nil, model.NewInvalidUploadError("extension .exe is not allowed")
		},
	}
	h := NewUserHandler(service, newMockCollector())

	body, contentType := multipartBody(t, nil, "avatar", "virus.exe", "bytes")
	req := authedRequest(http.MethodPatch, "/api/auth/update", body, contentType)
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
}
