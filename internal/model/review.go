package model

import "time"

// Review は商品に対するレビューと評価を表す。
type Review struct {
	ID        string
	ProductID string
	UserID    string
	Review    string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewWithAuthor はレビューと投稿者情報を結合した読み取り用モデル。
// 投稿者が退会済みの場合、Author系フィールドは空になる。
type ReviewWithAuthor struct {
	Review
	AuthorName     string
	AuthorEmail    string
	AuthorImageURL string
}
