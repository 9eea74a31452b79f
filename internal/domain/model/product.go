package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 商品。attributes はサブカテゴリごとに自由なキーを持つ（JSONB）。
type Product struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID    int64  `gorm:"not null;index" json:"category_id"`
	SubcategoryID int64  `gorm:"not null;index" json:"subcategory_id"`
	Name          string `gorm:"type:varchar(255);not null" json:"name"`
	Slug          string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`

	Description *string `gorm:"type:text" json:"description"`

	//価格未設定（問い合わせ商品）は NULL
	Price *float64 `gorm:"type:numeric(12,2);index" json:"price"`
	Stock int64    `gorm:"not null;default:0" json:"stock"`

	Images     datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images"`
	Brand      *string                     `gorm:"type:varchar(255)" json:"brand"`
	Attributes datatypes.JSONMap           `gorm:"type:jsonb" json:"attributes"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 一覧カード用に画像URLを付けた商品。
type ProductCard struct {
	Product
	PrimaryImageURL   *string `json:"primaryImageUrl"`
	SecondaryImageURL *string `json:"secondaryImageUrl"`
}
