// Package product は商品カタログのビジネスロジックを提供する。
package product

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/repository"
	"github.com/mask-shakill/jabotio-dashboard/internal/security"
	"github.com/mask-shakill/jabotio-dashboard/internal/storage"
)

// listLimit は一覧取得の最大件数。ページングは持たないため上限で打ち切る。
const listLimit = 200

// Upload はマルチパートフォームで届いた画像1枚を表す。
type Upload struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// CreateInput は商品登録リクエストの入力を表す。
type CreateInput struct {
	Name         string
	Price        string
	Items        string
	OldPrice     string
	Category     string
	Descriptions string
	Brand        string
	Warranty     string
	Discount     int
	Stock        int
	Sold         int
	Tags         []string
	Sizes        []string
	Colors       []string

	Thumbnail *Upload
	Images    []Upload
}

// UpdateInput は商品更新リクエストの入力を表す。
// nilのフィールドはフォームに含まれなかったことを示し、既存値を維持する。
// nilでないスライスは丸ごと置き換える。
type UpdateInput struct {
	Name         *string
	Price        *string
	Items        *string
	OldPrice     *string
	Category     *string
	Descriptions *string
	Brand        *string
	Warranty     *string
	Discount     *int
	Stock        *int
	Sold         *int
	Tags         []string
	Sizes        []string
	Colors       []string

	Thumbnail *Upload
	Images    []Upload
}

// Service は商品カタログのユースケースを提供する。
// 説明文はXSS対策のため保存前にサニタイズする。
type Service struct {
	productRepo repository.ProductRepository
	sanitizer   security.ContentSanitizerService
	files       storage.FileStore
}

// NewService はServiceを生成する。
func NewService(productRepo repository.ProductRepository, sanitizer security.ContentSanitizerService, files storage.FileStore) *Service {
	return &Service{
		productRepo: productRepo,
		sanitizer:   sanitizer,
		files:       files,
	}
}

// Create は商品を新規登録する。サムネイル画像は必須。
func (s *Service) Create(ctx context.Context, input *CreateInput) (*model.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewInvalidRequestError("Product name must not be empty")
	}
	if strings.TrimSpace(input.Price) == "" {
		return nil, model.NewInvalidRequestError("Product price must not be empty")
	}
	if input.Thumbnail == nil {
		return nil, model.NewInvalidRequestError("Thumbnail image is required")
	}

	thumbnailURL, err := s.files.Save(input.Thumbnail.File, input.Thumbnail.Header)
	if err != nil {
		return nil, err
	}

	imageURLs := make([]string, 0, len(input.Images))
	for _, img := range input.Images {
		url, err := s.files.Save(img.File, img.Header)
		if err != nil {
			return nil, err
		}
		imageURLs = append(imageURLs, url)
	}

	now := time.Now()
	p := &model.Product{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(input.Name),
		Price:        input.Price,
		Items:        input.Items,
		OldPrice:     input.OldPrice,
		Category:     input.Category,
		Descriptions: s.sanitizer.Sanitize(input.Descriptions),
		Brand:        input.Brand,
		Warranty:     input.Warranty,
		Discount:     input.Discount,
		Stock:        input.Stock,
		Sold:         input.Sold,
		Tags:         input.Tags,
		Sizes:        input.Sizes,
		Colors:       input.Colors,
		ThumbnailURL: thumbnailURL,
		ImageURLs:    imageURLs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.productRepo.Create(ctx, p); err != nil {
		slog.Error("failed to create product", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}

	slog.Info("product created",
		slog.String("product_id", p.ID),
		slog.String("name", p.Name),
	)
	return p, nil
}

// Get は指定IDの商品を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		slog.Error("product lookup failed", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return p, nil
}

// List は商品一覧を作成日時の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Product, error) {
	products, err := s.productRepo.ListAll(ctx, listLimit)
	if err != nil {
		slog.Error("product list failed", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	return products, nil
}

// Update は商品の部分更新を行う。既存レコードに変更を重ねて丸ごと保存する。
// 新しい画像が含まれる場合は保存してURLを差し替える。
func (s *Service) Update(ctx context.Context, id string, input *UpdateInput) (*model.Product, error) {
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		slog.Error("product lookup failed", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	if existing == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, model.NewInvalidRequestError("Product name must not be empty")
		}
		existing.Name = trimmed
	}
	if input.Price != nil {
		existing.Price = *input.Price
	}
	if input.Items != nil {
		existing.Items = *input.Items
	}
	if input.OldPrice != nil {
		existing.OldPrice = *input.OldPrice
	}
	if input.Category != nil {
		existing.Category = *input.Category
	}
	if input.Descriptions != nil {
		existing.Descriptions = s.sanitizer.Sanitize(*input.Descriptions)
	}
	if input.Brand != nil {
		existing.Brand = *input.Brand
	}
	if input.Warranty != nil {
		existing.Warranty = *input.Warranty
	}
	if input.Discount != nil {
		existing.Discount = *input.Discount
	}
	if input.Stock != nil {
		existing.Stock = *input.Stock
	}
	if input.Sold != nil {
		existing.Sold = *input.Sold
	}
	if input.Tags != nil {
		existing.Tags = input.Tags
	}
	if input.Sizes != nil {
		existing.Sizes = input.Sizes
	}
	if input.Colors != nil {
		existing.Colors = input.Colors
	}

	if input.Thumbnail != nil {
		url, err := s.files.Save(input.Thumbnail.File, input.Thumbnail.Header)
		if err != nil {
			return nil, err
		}
		existing.ThumbnailURL = url
	}
	if len(input.Images) > 0 {
		urls := make([]string, 0, len(input.Images))
		for _, img := range input.Images {
			url, err := s.files.Save(img.File, img.Header)
			if err != nil {
				return nil, err
			}
			urls = append(urls, url)
		}
		existing.ImageURLs = urls
	}

	existing.UpdatedAt = time.Now()

	found, err := s.productRepo.Update(ctx, existing)
	if err != nil {
		slog.Error("failed to update product", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	if !found {
		// 取得と更新の間に削除された場合
		return nil, model.NewProductNotFoundError(id)
	}

	slog.Info("product updated", slog.String("product_id", id))
	return existing, nil
}

// Delete は指定IDの商品を削除する。レビューはストア側のカスケードで消える。
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		slog.Error("failed to delete product", slog.String("error", err.Error()))
		return model.NewDirectoryUnavailableError()
	}
	if !found {
		return model.NewProductNotFoundError(id)
	}

	slog.Info("product deleted", slog.String("product_id", id))
	return nil
}
