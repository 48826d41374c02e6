// Package review は商品レビューのビジネスロジックを提供する。
package review

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/repository"
	"github.com/mask-shakill/jabotio-dashboard/internal/security"
)

// CreateInput はレビュー投稿リクエストの入力を表す。
type CreateInput struct {
	ProductID string
	Review    string
	Rating    int
}

// Service は商品レビューのユースケースを提供する。
type Service struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		sanitizer:   sanitizer,
	}
}

// Create はレビューを投稿する。評価は1〜5の範囲のみ受け付ける。
// 存在しない商品へのレビューは拒否する。本文は保存前にサニタイズする。
func (s *Service) Create(ctx context.Context, userID string, input *CreateInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, model.NewInvalidRatingError(input.Rating)
	}
	if strings.TrimSpace(input.Review) == "" {
		return nil, model.NewInvalidRequestError("Review text must not be empty")
	}

	product, err := s.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		slog.Error("product lookup failed", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(input.ProductID)
	}

	now := time.Now()
	r := &model.Review{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		UserID:    userID,
		Review:    s.sanitizer.Sanitize(input.Review),
		Rating:    input.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviewRepo.Create(ctx, r); err != nil {
		slog.Error("failed to create review", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}

	slog.Info("review created",
		slog.String("review_id", r.ID),
		slog.String("product_id", r.ProductID),
		slog.Int("rating", r.Rating),
	)
	return r, nil
}

// ListByProduct は指定商品のレビュー一覧を投稿者情報付きで返す。
// 商品が存在しない場合はProductNotFoundを返す。
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]model.ReviewWithAuthor, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		slog.Error("product lookup failed", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		slog.Error("review list failed", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	return reviews, nil
}
