// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleAdmin は管理者ロール。商品の作成・更新・削除が可能。
	RoleAdmin Role = "admin"
	// RoleUser は一般ユーザーロール。初回ログイン時のデフォルト。
	RoleUser Role = "user"
)

// IsValid はロールが定義済みの値であることを検証する。
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User はダッシュボード利用ユーザーを表す。
// GoogleIDは外部IdPのsubject idで、作成後は不変。
// Roleと連絡先フィールドはログインフローでは更新されない。
type User struct {
	ID        string
	GoogleID  string
	Email     string
	Name      string
	Role      Role
	Phone     string
	Location  string
	Address   string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdentityClaim は外部IdPが検証済みのユーザー属性を表す。
// ログインリクエスト1回限りの一時データで、このままでは永続化しない。
type IdentityClaim struct {
	SubjectID string
	Email     string
	Name      string
	Picture   string
}

// SessionClaim はセッションクレデンシャルにエンコードされるクレーム。
// ローカルユーザーIDとロールのみを持ち、検証時にディレクトリの再参照は行わない。
type SessionClaim struct {
	UserID string
	Role   Role
}

// ProfileUpdate はプロフィール更新で変更可能なフィールドの部分集合。
// nilのフィールドは変更せず既存値を維持する。
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	Location *string
	Address  *string
	ImageURL *string
}
