package model

import "time"

// Product は商品カタログのレコードを表す。
// Tags・Sizes・ColorsはフォームからJSON文字列として届き、
// デコード済みのスライスとして保持する。
type Product struct {
	ID           string
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
	ThumbnailURL string
	ImageURLs    []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
