package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	"storefront/internal/query"
)

var (
	ErrNotFound = errors.New("not found")
	// slug の重複など一意制約違反
	ErrConflict = errors.New("conflict")
)

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	// Plan の条件でページと総件数を返す。総件数は同じ条件で数える。
	List(ctx context.Context, plan query.Plan) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}

// 商品assetsの取得。
type ProductAssetRepository interface {
	// is_primary DESC, sort_order ASC
	ListByProduct(ctx context.Context, productID int64) ([]model.ProductAsset, error)
	// 一覧カード用：gallery の image だけ、商品ごとに並び順どおり
	ListGalleryImages(ctx context.Context, productIDs []int64) (map[int64][]model.ProductAsset, error)
}
