package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type ProductAssetGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductAssetGormRepository(db *gorm.DB) *ProductAssetGormRepository {
	return &ProductAssetGormRepository{db: db}
}

// 主画像が先頭、その後 sort_order 順
func (r *ProductAssetGormRepository) ListByProduct(ctx context.Context, productID int64) ([]model.ProductAsset, error) {
	var assets []model.ProductAsset
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_primary desc").
		Order("sort_order asc").
		Order("id asc").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// 複数商品のギャラリー画像を1クエリで取って商品ごとに分ける。
func (r *ProductAssetGormRepository) ListGalleryImages(ctx context.Context, productIDs []int64) (map[int64][]model.ProductAsset, error) {
	out := make(map[int64][]model.ProductAsset, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var assets []model.ProductAsset
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Where("section = ?", model.AssetSectionGallery).
		Where("kind = ?", model.AssetKindImage).
		Order("is_primary desc").
		Order("sort_order asc").
		Order("id asc").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}

	for _, a := range assets {
		out[a.ProductID] = append(out[a.ProductID], a)
	}
	return out, nil
}
