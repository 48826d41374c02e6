package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
// tags/sizes/colors/image_urlsはJSONB列に格納する。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productColumns = `id, name, price, items, old_price, category, descriptions, brand, warranty,
	discount, stock, sold, tags, sizes, colors, thumbnail_url, image_urls, created_at, updated_at`

// marshalStrings は文字列スライスをJSONB格納用にエンコードする。
// nilは空配列として格納する。
func marshalStrings(s []string) ([]byte, error) {
	if s == nil {
		s = []string{}
	}
	return json.Marshal(s)
}

// scanProduct は1行をmodel.Productにデコードする。
func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	var tags, sizes, colors, imageURLs []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Items, &p.OldPrice, &p.Category,
		&p.Descriptions, &p.Brand, &p.Warranty,
		&p.Discount, &p.Stock, &p.Sold,
		&tags, &sizes, &colors, &p.ThumbnailURL, &imageURLs,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, pair := range []struct {
		raw  []byte
		dest *[]string
	}{
		{tags, &p.Tags},
		{sizes, &p.Sizes},
		{colors, &p.Colors},
		{imageURLs, &p.ImageURLs},
	} {
		if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
			return nil, fmt.Errorf("product %s has malformed JSONB column: %w", p.ID, err)
		}
	}

	return p, nil
}

// Create は商品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	tags, err := marshalStrings(product.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	sizes, err := marshalStrings(product.Sizes)
	if err != nil {
		return fmt.Errorf("failed to encode sizes: %w", err)
	}
	colors, err := marshalStrings(product.Colors)
	if err != nil {
		return fmt.Errorf("failed to encode colors: %w", err)
	}
	imageURLs, err := marshalStrings(product.ImageURLs)
	if err != nil {
		return fmt.Errorf("failed to encode image urls: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, price, items, old_price, category, descriptions, brand, warranty,
		     discount, stock, sold, tags, sizes, colors, thumbnail_url, image_urls, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)`,
		product.ID, product.Name, product.Price, product.Items, product.OldPrice, product.Category,
		product.Descriptions, product.Brand, product.Warranty,
		product.Discount, product.Stock, product.Sold,
		tags, sizes, colors, product.ThumbnailURL, imageURLs,
		product.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		id,
	)
	product, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// ListAll は商品一覧を作成日時の降順で返す。limitで件数を制限する。
func (r *PostgresProductRepo) ListAll(ctx context.Context, limit int) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}

	return products, nil
}

// Update は商品1レコードを丸ごと上書きする。見つからない場合はfalseを返す。
func (r *PostgresProductRepo) Update(ctx context.Context, product *model.Product) (bool, error) {
	tags, err := marshalStrings(product.Tags)
	if err != nil {
		return false, fmt.Errorf("failed to encode tags: %w", err)
	}
	sizes, err := marshalStrings(product.Sizes)
	if err != nil {
		return false, fmt.Errorf("failed to encode sizes: %w", err)
	}
	colors, err := marshalStrings(product.Colors)
	if err != nil {
		return false, fmt.Errorf("failed to encode colors: %w", err)
	}
	imageURLs, err := marshalStrings(product.ImageURLs)
	if err != nil {
		return false, fmt.Errorf("failed to encode image urls: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $2, price = $3, items = $4, old_price = $5, category = $6, descriptions = $7,
		     brand = $8, warranty = $9, discount = $10, stock = $11, sold = $12,
		     tags = $13, sizes = $14, colors = $15, thumbnail_url = $16, image_urls = $17,
		     updated_at = now()
		 WHERE id = $1`,
		product.ID, product.Name, product.Price, product.Items, product.OldPrice, product.Category,
		product.Descriptions, product.Brand, product.Warranty,
		product.Discount, product.Stock, product.Sold,
		tags, sizes, colors, product.ThumbnailURL, imageURLs,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete は指定IDの商品を削除する。見つからない場合はfalseを返す。
// 関連するreviewsはCASCADE削除される。
func (r *PostgresProductRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
