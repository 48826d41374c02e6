// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

// UserRepository はユーザーディレクトリの永続化インターフェース。
// レコードの形はこの境界で検証済みの型付き構造体に固定する。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByGoogleID は外部IdPのsubject idでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)

	// Create は検証済みクレームから新規ユーザーを作成する。ロールは"user"。
	// 同一google_idが既に存在する場合はemail/name/image_urlのみを更新して
	// 既存行を返すため、同時初回ログインは1ユーザーに収束する。
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// RefreshIdentity はログイン時にemail/name/image_urlを最新クレームで更新する。
	// ロールと連絡先フィールドには触れない。見つからない場合はnilを返す。
	RefreshIdentity(ctx context.Context, googleID string, claim *model.IdentityClaim) (*model.User, error)

	// UpdateProfile はプロフィール編集で変更可能なフィールドのみを更新する。
	// nilのフィールドは既存値を維持する。見つからない場合はnilを返す。
	UpdateProfile(ctx context.Context, id string, fields *model.ProfileUpdate) (*model.User, error)
}

// ProductRepository は商品カタログの永続化インターフェース。
type ProductRepository interface {
	// Create は商品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// ListAll は商品一覧を作成日時の降順で返す。limitで件数を制限する。
	ListAll(ctx context.Context, limit int) ([]*model.Product, error)

	// Update は商品1レコードを丸ごと上書きする。見つからない場合はfalseを返す。
	Update(ctx context.Context, product *model.Product) (bool, error)

	// Delete は指定IDの商品を削除する。見つからない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// ReviewRepository は商品レビューの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// ListByProduct は指定商品のレビュー一覧を投稿者情報付きで
	// 作成日時の降順で返す。
	ListByProduct(ctx context.Context, productID string) ([]model.ReviewWithAuthor, error)
}
