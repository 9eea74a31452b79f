package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// カテゴリ・サブカテゴリの読み取り。
type CategoryRepository interface {
	// 名前順
	ListCategories(ctx context.Context) ([]model.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (model.Category, error)
	FindCategoryByID(ctx context.Context, id int64) (model.Category, error)

	// display_order順
	ListSubcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error)
	FindSubcategoryByID(ctx context.Context, id int64) (model.Subcategory, error)
}
