package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーディレクトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, google_id, email, name, role, phone, location, address, image_url, created_at, updated_at`

// scanUser は1行をmodel.Userにデコードする。
// ロールが未知の値の場合はエラーを返し、不正なレコードを上位に流さない。
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.Role,
		&user.Phone, &user.Location, &user.Address, &user.ImageURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsValid() {
		return nil, fmt.Errorf("user %s has invalid role %q", user.ID, user.Role)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByGoogleID は外部IdPのsubject idでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`,
		googleID,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by google ID: %w", err)
	}
	return user, nil
}

// Create は新規ユーザーを作成する。
// 同一google_idが既に存在する場合はemail/name/image_urlのみ更新して既存行を返す。
// ロールと連絡先フィールドはON CONFLICT側では変更しない。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, google_id, email, name, role, phone, location, address, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, '', '', '', $6, $7, $7)
		 ON CONFLICT (google_id) DO UPDATE
		 SET email = EXCLUDED.email, name = EXCLUDED.name, image_url = EXCLUDED.image_url, updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		user.ID, user.GoogleID, user.Email, user.Name, user.Role, user.ImageURL, user.CreatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

// RefreshIdentity はログイン時にemail/name/image_urlを最新クレームで更新する。
// ロールと連絡先フィールドには触れない。見つからない場合はnilを返す。
func (r *PostgresUserRepo) RefreshIdentity(ctx context.Context, googleID string, claim *model.IdentityClaim) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET email = $2, name = $3, image_url = $4, updated_at = now()
		 WHERE google_id = $1
		 RETURNING `+userColumns,
		googleID, claim.Email, claim.Name, claim.Picture,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh user identity: %w", err)
	}
	return user, nil
}

// UpdateProfile はプロフィール編集で変更可能なフィールドのみを更新する。
// nilのフィールドはCOALESCEで既存値を維持する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id string, fields *model.ProfileUpdate) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET name = COALESCE($2, name),
		     phone = COALESCE($3, phone),
		     location = COALESCE($4, location),
		     address = COALESCE($5, address),
		     image_url = COALESCE($6, image_url),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id,
		nullString(fields.Name),
		nullString(fields.Phone),
		nullString(fields.Location),
		nullString(fields.Address),
		nullString(fields.ImageURL),
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return user, nil
}

// nullString は*stringをsql.NullStringに変換する。
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
