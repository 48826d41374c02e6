package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mask-shakill/jabotio-dashboard/internal/metrics"
	"github.com/mask-shakill/jabotio-dashboard/internal/middleware"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/product"
)

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	Create(ctx context.Context, input *product.CreateInput) (*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context) ([]*model.Product, error)
	Update(ctx context.Context, id string, input *product.UpdateInput) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductHandler は商品カタログのHTTPハンドラー。
// 作成・更新・削除は管理者ロールのみ実行できる。
type ProductHandler struct {
	service   ProductServiceInterface
	collector metrics.MetricsCollector
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface, collector metrics.MetricsCollector) *ProductHandler {
	return &ProductHandler{
		service:   service,
		collector: collector,
	}
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	Items        string    `json:"items"`
	OldPrice     string    `json:"old_price"`
	Category     string    `json:"category"`
	Descriptions string    `json:"descriptions"`
	Brand        string    `json:"brand"`
	Warranty     string    `json:"warranty"`
	Discount     int       `json:"discount"`
	Stock        int       `json:"stock"`
	Sold         int       `json:"sold"`
	Tags         []string  `json:"tags"`
	Sizes        []string  `json:"sizes"`
	Colors       []string  `json:"colors"`
	ThumbnailURL string    `json:"thumbnail_url"`
	ImageURLs    []string  `json:"image_urls"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// List は商品一覧を返す。
// GET /api/products/all
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]productResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toProductResponse(p))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"products": items,
	})
}

// Get は商品詳細を返す。
// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"product": toProductResponse(p),
	})
}

// Create は商品を新規登録する。マルチパートフォームのみ受け付ける。
// POST /api/products/create
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
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

	input := &product.CreateInput{
		Name:         r.FormValue("name"),
		Price:        r.FormValue("price"),
		Items:        r.FormValue("items"),
		OldPrice:     r.FormValue("old_price"),
		Category:     r.FormValue("category"),
		Descriptions: r.FormValue("descriptions"),
		Brand:        r.FormValue("brand"),
		Warranty:     r.FormValue("warranty"),
	}

	var err error
	if input.Discount, err = formInt(r, "discount"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Discount must be an integer"))
		return
	}
	if input.Stock, err = formInt(r, "stock"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Stock must be an integer"))
		return
	}
	if input.Sold, err = formInt(r, "sold"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Sold must be an integer"))
		return
	}

	if input.Tags, err = formStringList(r, "tags"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Tags must be a JSON array of strings"))
		return
	}
	if input.Sizes, err = formStringList(r, "size"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Size must be a JSON array of strings"))
		return
	}
	if input.Colors, err = formStringList(r, "colors"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Colors must be a JSON array of strings"))
		return
	}

	var uploadedBytes int64
	if file, header, err := r.FormFile("thumbnail"); err == nil {
		defer file.Close()
		input.Thumbnail = &product.Upload{File: file, Header: header}
		uploadedBytes += header.Size
	}
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidUploadError("failed to read uploaded image"))
				return
			}
			defer file.Close()
			input.Images = append(input.Images, product.Upload{File: file, Header: header})
			uploadedBytes += header.Size
		}
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if uploadedBytes > 0 {
		h.collector.RecordUploadStored(uploadedBytes)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Product created",
		"product": toProductResponse(created),
	})
}

// Update は商品を部分更新する。マルチパートフォームのみ受け付ける。
// PATCH /api/products/update/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
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

	input := &product.UpdateInput{
		Name:         formValue(r, "name"),
		Price:        formValue(r, "price"),
		Items:        formValue(r, "items"),
		OldPrice:     formValue(r, "old_price"),
		Category:     formValue(r, "category"),
		Descriptions: formValue(r, "descriptions"),
		Brand:        formValue(r, "brand"),
		Warranty:     formValue(r, "warranty"),
	}

	var err error
	if input.Discount, err = formIntPtr(r, "discount"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Discount must be an integer"))
		return
	}
	if input.Stock, err = formIntPtr(r, "stock"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Stock must be an integer"))
		return
	}
	if input.Sold, err = formIntPtr(r, "sold"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Sold must be an integer"))
		return
	}

	if input.Tags, err = formStringList(r, "tags"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Tags must be a JSON array of strings"))
		return
	}
	if input.Sizes, err = formStringList(r, "size"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Size must be a JSON array of strings"))
		return
	}
	if input.Colors, err = formStringList(r, "colors"); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Colors must be a JSON array of strings"))
		return
	}

	var uploadedBytes int64
	if file, header, err := r.FormFile("thumbnail"); err == nil {
		defer file.Close()
		input.Thumbnail = &product.Upload{File: file, Header: header}
		uploadedBytes += header.Size
	}
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidUploadError("failed to read uploaded image"))
				return
			}
			defer file.Close()
			input.Images = append(input.Images, product.Upload{File: file, Header: header})
			uploadedBytes += header.Size
		}
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if uploadedBytes > 0 {
		h.collector.RecordUploadStored(uploadedBytes)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Product updated",
		"product": toProductResponse(updated),
	})
}

// Delete は商品を削除する。
// DELETE /api/products/delete/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Product deleted",
	})
}

// requireAdmin はセッションクレームの管理者ロールを検証する。
// ロール判定はクレームのみで行い、ディレクトリの再参照はしない。
func (h *ProductHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claim, err := middleware.ClaimFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return false
	}
	if claim.Role != model.RoleAdmin {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return false
	}
	return true
}

// --- ヘルパー関数 ---

// toProductResponse はmodel.ProductからAPIレスポンスに変換する。
func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Items:        p.Items,
		OldPrice:     p.OldPrice,
		Category:     p.Category,
		Descriptions: p.Descriptions,
		Brand:        p.Brand,
		Warranty:     p.Warranty,
		Discount:     p.Discount,
		Stock:        p.Stock,
		Sold:         p.Sold,
		Tags:         p.Tags,
		Sizes:        p.Sizes,
		Colors:       p.Colors,
		ThumbnailURL: p.ThumbnailURL,
		ImageURLs:    p.ImageURLs,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// formInt はフォームのフィールドを整数として解析する。欠落時は0を返す。
func formInt(r *http.Request, name string) (int, error) {
	value := r.FormValue(name)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// formIntPtr はフォームにフィールドが存在する場合のみ整数値へのポインタを返す。
func formIntPtr(r *http.Request, name string) (*int, error) {
	value := formValue(r, name)
	if value == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// formStringList はJSON配列文字列のフォームフィールドをデコードする。
// フィールドが欠落している場合はnilを返す（更新時は既存値の維持を意味する）。
func formStringList(r *http.Request, name string) ([]string, error) {
	value := formValue(r, name)
	if value == nil {
		return nil, nil
	}
	if *value == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(*value), &list); err != nil {
		return nil, err
	}
	return list, nil
}
