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

	"github.com/go-chi/chi/v5"
	"github.com/mask-shakill/jabotio-dashboard/internal/middleware"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/product"
)

// --- モック定義 ---

type mockProductService struct {
	createFunc func(ctx context.Context, input *product.CreateInput) (*model.Product, error)
	getFunc    func(ctx context.Context, id string) (*model.Product, error)
	listFunc   func(ctx context.Context) ([]*model.Product, error)
	updateFunc func(ctx context.Context, id string, input *product.UpdateInput) (*model.Product, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockProductService) Create(ctx context.Context, input *product.CreateInput) (*model.Product, error) {
	return m.createFunc(ctx, input)
}

func (m *mockProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	return m.getFunc(ctx, id)
}

func (m *mockProductService) List(ctx context.Context) ([]*model.Product, error) {
	return m.listFunc(ctx)
}

func (m *mockProductService) Update(ctx context.Context, id string, input *product.UpdateInput) (*model.Product, error) {
	return m.updateFunc(ctx, id, input)
}

func (m *mockProductService) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

// adminRequest は管理者クレーム付きのリクエストを生成する。
func adminRequest(method, target string, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req.WithContext(middleware.ContextWithClaim(req.Context(), &model.SessionClaim{
		UserID: "admin-1",
		Role:   model.RoleAdmin,
	}))
}

// productForm はテスト用の商品マルチパートフォームを構築する。
func productForm(t *testing.T, fields map[string]string, withThumbnail bool, imageCount int) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if withThumbnail {
		fw, err := mw.CreateFormFile("thumbnail", "thumb.png")
		if err != nil {
			t.Fatalf("failed to create thumbnail: %v", err)
		}
		io.Copy(fw, strings.NewReader("thumb-bytes"))
	}
	for i := 0; i < imageCount; i++ {
		fw, err := mw.CreateFormFile("images", "image.png")
		if err != nil {
			t.Fatalf("failed to create image: %v", err)
		}
		io.Copy(fw, strings.NewReader("image-bytes"))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// routeWithID はchiのURLパラメータを解決するためにルーター経由でリクエストを処理する。
func routeWithID(method, pattern string, handlerFunc http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handlerFunc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- テスト ---

func TestProductHandler_Create_AdminSuccess(t *testing.T) {
	var captured *product.CreateInput
	service := &mockProductService{
		createFunc: func(ctx context.Context, input *product.CreateInput) (*model.Product, error) {
			captured = input
			return &model.Product{ID: "prod-1", Name: input.Name}, nil
		},
	}
	collector := newMockCollector()
	h := NewProductHandler(service, collector)

	body, contentType := productForm(t, map[string]string{
		"name":         "Leather Bag",
		"price":        "120",
		"descriptions": "<p>上質なレザー</p>",
		"discount":     "10",
		"stock":        "25",
		"tags":         `["bag","leather"]`,
		"size":         `["S","M"]`,
	}, true, 2)
	req := adminRequest(http.MethodPost, "/api/products/create", body, contentType)
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	if captured.Name != "Leather Bag" || captured.Price != "120" {
		t.Errorf("input = %+v", captured)
	}
	if captured.Discount != 10 || captured.Stock != 25 {
		t.Errorf("discount = %d, stock = %d", captured.Discount, captured.Stock)
	}
	if len(captured.Tags) != 2 || captured.Tags[0] != "bag" {
		t.Errorf("tags = %v", captured.Tags)
	}
	if len(captured.Sizes) != 2 || captured.Sizes[0] != "S" {
		t.Errorf("sizes = %v", captured.Sizes)
	}
	if captured.Thumbnail == nil {
		t.Error("thumbnail should be passed")
	}
	if len(captured.Images) != 2 {
		t.Errorf("len(images) = %d, want 2", len(captured.Images))
	}
	if collector.uploadsStored != 1 {
		t.Errorf("uploadsStored = %d, want 1", collector.uploadsStored)
	}
}

func TestProductHandler_Create_UserRole_Returns403(t *testing.T) {
	service := &mockProductService{
		createFunc: func(ctx context.Context, input *product.CreateInput) (*model.Product, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	h := NewProductHandler(service, newMockCollector())

	body, contentType := productForm(t, map[string]string{"name": "Bag"}, true, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/products/create", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.ContextWithClaim(req.Context(), &model.SessionClaim{
		UserID: "user-1",
		Role:   model.RoleUser,
	}))
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}

	var errBody middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if errBody.Code != model.ErrCodeForbidden {
		t.Errorf("code = %q, want FORBIDDEN", errBody.Code)
	}
}

func TestProductHandler_Create_NotMultipart_Returns415(t *testing.T) {
	h := NewProductHandler(&mockProductService{}, newMockCollector())

	req := adminRequest(http.MethodPost, "/api/products/create", strings.NewReader(`{"name":"Bag"}`), "application/json")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", w.Result().StatusCode)
	}
}

func TestProductHandler_Create_InvalidNumericField_Returns400(t *testing.T) {
	h := NewProductHandler(&mockProductService{}, newMockCollector())

	body, contentType := productForm(t, map[string]string{
		"name":  "Bag",
		"price": "120",
		"stock": "many",
	}, true, 0)
	req := adminRequest(http.MethodPost, "/api/products/create", body, contentType)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
}

func TestProductHandler_Create_InvalidTagsJSON_Returns400(t *testing.T) {
	h := NewProductHandler(&mockProductService{}, newMockCollector())

	body, contentType := productForm(t, map[string]string{
		"name":  "Bag",
		"price": "120",
		"tags":  "not-json",
	}, true, 0)
	req := adminRequest(http.MethodPost, "/api/products/create", body, contentType)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
}

func TestProductHandler_List_ReturnsProducts(t *testing.T) {
	service := &mockProductService{
		listFunc: func(ctx context.Context) ([]*model.Product, error) {
			return []*model.Product{
				{ID: "prod-1", Name: "Bag"},
				{ID: "prod-2", Name: "Shoes"},
			}, nil
		},
	}
	h := NewProductHandler(service, newMockCollector())

	req := authedRequest(http.MethodGet, "/api/products/all", nil, "")
	w := httptest.NewRecorder()

	h.List(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Products []productResponse `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Products) != 2 {
		t.Errorf("len(products) = %d, want 2", len(body.Products))
	}
}

func TestProductHandler_Get_NotFound_Returns404(t *testing.T) {
	service := &mockProductService{
		getFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return nil, model.NewProductNotFoundError(id)
		},
	}
	h := NewProductHandler(service, newMockCollector())

	req := authedRequest(http.MethodGet, "/api/products/missing", nil, "")
	w := routeWithID(http.MethodGet, "/api/products/{id}", h.Get, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Result().StatusCode)
	}
}

func TestProductHandler_Update_PartialFields(t *testing.T) {
	var capturedID string
	var captured *product.UpdateInput
	service := &mockProductService{
		updateFunc: func(ctx context.Context, id string, input *product.UpdateInput) (*model.Product, error) {
			capturedID = id
			captured = input
			return &model.Product{ID: id, Stock: 5}, nil
		},
	}
	h := NewProductHandler(service, newMockCollector())

	body, contentType := productForm(t, map[string]string{"stock": "5", "size": `["L"]`}, false, 0)
	req := adminRequest(http.MethodPatch, "/api/products/update/prod-1", body, contentType)
	w := routeWithID(http.MethodPatch, "/api/products/update/{id}", h.Update, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if capturedID != "prod-1" {
		t.Errorf("id = %q", capturedID)
	}
	if captured.Stock == nil || *captured.Stock != 5 {
		t.Errorf("Stock = %v", captured.Stock)
	}
	if len(captured.Sizes) != 1 || captured.Sizes[0] != "L" {
		t.Errorf("sizes = %v", captured.Sizes)
	}
	if captured.Name != nil || captured.Tags != nil {
		t.Error("absent fields should stay nil")
	}
}

func TestProductHandler_Delete_AdminSuccess(t *testing.T) {
	var deletedID string
	service := &mockProductService{
		deleteFunc: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	h := NewProductHandler(service, newMockCollector())

	req := adminRequest(http.MethodDelete, "/api/products/delete/prod-1", nil, "")
	w := routeWithID(http.MethodDelete, "/api/products/delete/{id}", h.Delete, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if deletedID != "prod-1" {
		t.Errorf("deleted id = %q", deletedID)
	}
}

func TestProductHandler_Delete_UserRole_Returns403(t *testing.T) {
	service := &mockProductService{
		deleteFunc: func(ctx context.Context, id string) error {
			t.Fatal("service should not be called")
			return nil
		},
	}
	h := NewProductHandler(service, newMockCollector())

	req := authedRequest(http.MethodDelete, "/api/products/delete/prod-1", nil, "")
	w := routeWithID(http.MethodDelete, "/api/products/delete/{id}", h.Delete, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Result().StatusCode)
	}
}
