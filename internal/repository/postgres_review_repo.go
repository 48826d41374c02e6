package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, product_id, user_id, review, rating, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		review.ID, review.ProductID, review.UserID, review.Review, review.Rating, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// ListByProduct は指定商品のレビュー一覧を投稿者情報付きで作成日時の降順で返す。
// 投稿者が削除済みの場合はAuthor系フィールドを空で返す。
func (r *PostgresReviewRepo) ListByProduct(ctx context.Context, productID string) ([]model.ReviewWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.id, rv.product_id, rv.user_id, rv.review, rv.rating, rv.created_at, rv.updated_at,
		        COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(u.image_url, '')
		 FROM reviews rv
		 LEFT JOIN users u ON u.id = rv.user_id
		 WHERE rv.product_id = $1
		 ORDER BY rv.created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.ReviewWithAuthor
	for rows.Next() {
		var rv model.ReviewWithAuthor
		err := rows.Scan(
			&rv.ID, &rv.ProductID, &rv.UserID, &rv.Review.Review, &rv.Rating,
			&rv.CreatedAt, &rv.UpdatedAt,
			&rv.AuthorName, &rv.AuthorEmail, &rv.AuthorImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}

	return reviews, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
