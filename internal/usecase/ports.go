package usecase

import (
	"context"

	"storefront/internal/domain/model"
)

// カテゴリツリーのキャッシュ（Redis / プロセス内）。
type CategoryCache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}) error
	Invalidate(ctx context.Context) error
}

// オブジェクトストレージの公開URL。
type AssetURLResolver interface {
	AssetURL(a model.ProductAsset) (string, error)
}
