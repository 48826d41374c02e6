package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mask-shakill/jabotio-dashboard/internal/middleware"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/review"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	Create(ctx context.Context, userID string, input *review.CreateInput) (*model.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]model.ReviewWithAuthor, error)
}

// ReviewHandler は商品レビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		service: service,
	}
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	UserID         string    `json:"user_id"`
	Review         string    `json:"review"`
	Rating         int       `json:"rating"`
	AuthorName     string    `json:"author_name,omitempty"`
	AuthorImageURL string    `json:"author_image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Create はログインユーザーとして商品レビューを投稿する。
// POST /api/products/review-rating/create
//
// multipart/form-data のフィールド: product_id, review, rating
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
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
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid multipart form"))
		return
	}

	// ratingは数値でなければ範囲外として扱い、サービス層の検証に委ねる
	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		rating = 0
	}

	created, err := h.service.Create(r.Context(), claim.UserID, &review.CreateInput{
		ProductID: r.FormValue("product_id"),
		Review:    r.FormValue("review"),
		Rating:    rating,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Review created",
		"review": reviewResponse{
			ID:        created.ID,
			ProductID: created.ProductID,
			UserID:    created.UserID,
			Review:    created.Review,
			Rating:    created.Rating,
			CreatedAt: created.CreatedAt,
		},
	})
}

// ListByProduct は指定商品のレビュー一覧を投稿者情報付きで返す。
// GET /api/products/review-rating?productId={id}
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")
	if productID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("productId query parameter is required"))
		return
	}

	reviews, err := h.service.ListByProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]reviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		items = append(items, reviewResponse{
			ID:             rv.ID,
			ProductID:      rv.ProductID,
			UserID:         rv.UserID,
			Review:         rv.Review.Review,
			Rating:         rv.Rating,
			AuthorName:     rv.AuthorName,
			AuthorImageURL: rv.AuthorImageURL,
			CreatedAt:      rv.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"reviews": items,
	})
}
