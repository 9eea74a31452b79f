package model

import (
	"time"

	"gorm.io/datatypes"
)

type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	ImageURL  *string   `gorm:"type:text" json:"image_url"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// フィルタUIの種類
type FilterType string

const (
	FilterTypeSelect   FilterType = "select"
	FilterTypeCheckbox FilterType = "checkbox"
	FilterTypeRange    FilterType = "range"
	FilterTypeBoolean  FilterType = "boolean"
)

// サブカテゴリで使える属性フィルタの定義。
type FilterConfig struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Type    FilterType `json:"type"`
	Options []string   `json:"options,omitempty"`
	Min     *float64   `json:"min,omitempty"`
	Max     *float64   `json:"max,omitempty"`
	Step    *float64   `json:"step,omitempty"`
}

type Subcategory struct {
	ID           int64                             `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID   int64                             `gorm:"not null;index;uniqueIndex:idx_subcategory_slug" json:"category_id"`
	Name         string                            `gorm:"type:varchar(255);not null" json:"name"`
	Slug         string                            `gorm:"type:varchar(255);not null;uniqueIndex:idx_subcategory_slug" json:"slug"`
	FilterConfig datatypes.JSONSlice[FilterConfig] `gorm:"type:jsonb" json:"filter_config"`
	DisplayOrder int                               `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time                         `gorm:"not null;autoCreateTime" json:"created_at"`
}

// カテゴリ + サブカテゴリ（display_order順）。キャッシュの単位。
type CategoryTree struct {
	Category      Category      `json:"category"`
	Subcategories []Subcategory `json:"subcategories"`
}

// SubcategorySlugs はURLのsubcategoria検証に使う。
func (t CategoryTree) SubcategorySlugs() []string {
	out := make([]string, 0, len(t.Subcategories))
	for _, s := range t.Subcategories {
		out = append(out, s.Slug)
	}
	return out
}

// FindSubcategory は slug で所属サブカテゴリを探す。
func (t CategoryTree) FindSubcategory(slug string) (Subcategory, bool) {
	for _, s := range t.Subcategories {
		if s.Slug == slug {
			return s, true
		}
	}
	return Subcategory{}, false
}
