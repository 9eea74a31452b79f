package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const (
	cacheKeyCategories = "categories"
	cacheKeyTreePrefix = "tree:"
)

type CategoryUsecase struct {
	repo  repo.CategoryRepository
	cache CategoryCache
	log   *zap.Logger
}

// DI
func NewCategoryUsecase(categoryRepo repo.CategoryRepository, cache CategoryCache, log *zap.Logger) *CategoryUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryUsecase{repo: categoryRepo, cache: cache, log: log}
}

// ListCategories は名前順のカテゴリ一覧。
func (u *CategoryUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if u.fromCache(ctx, cacheKeyCategories, &cats) {
		return cats, nil
	}

	cats, err := u.repo.ListCategories(ctx)
	if err != nil {
		u.log.Error("list categories", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	if cats == nil {
		cats = []model.Category{}
	}
	u.toCache(ctx, cacheKeyCategories, cats)
	return cats, nil
}

// GetCategoryTree はカテゴリとサブカテゴリ（display_order順）。
func (u *CategoryUsecase) GetCategoryTree(ctx context.Context, slug string) (model.CategoryTree, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.CategoryTree{}, NewHTTPError(http.StatusBadRequest, "categorySlug is required")
	}

	var tree model.CategoryTree
	if u.fromCache(ctx, cacheKeyTreePrefix+slug, &tree) {
		return tree, nil
	}

	cat, err := u.repo.FindCategoryBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CategoryTree{}, NewHTTPError(http.StatusNotFound, "Category not found")
	}
	if err != nil {
		u.log.Error("find category", zap.String("slug", slug), zap.Error(err))
		return model.CategoryTree{}, NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	subs, err := u.repo.ListSubcategories(ctx, cat.ID)
	if err != nil {
		u.log.Error("list subcategories", zap.Int64("category_id", cat.ID), zap.Error(err))
		return model.CategoryTree{}, NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	if subs == nil {
		subs = []model.Subcategory{}
	}

	tree = model.CategoryTree{Category: cat, Subcategories: subs}
	u.toCache(ctx, cacheKeyTreePrefix+slug, tree)
	return tree, nil
}

// Invalidate は管理者の書き込み後に呼ぶ。
func (u *CategoryUsecase) Invalidate(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx); err != nil {
		u.log.Warn("invalidate category cache", zap.Error(err))
	}
}

//キャッシュの失敗はDBにフォールバックする
func (u *CategoryUsecase) fromCache(ctx context.Context, key string, dst interface{}) bool {
	if u.cache == nil {
		return false
	}
	ok, err := u.cache.Get(ctx, key, dst)
	if err != nil {
		u.log.Warn("category cache get", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (u *CategoryUsecase) toCache(ctx context.Context, key string, v interface{}) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Set(ctx, key, v); err != nil {
		u.log.Warn("category cache set", zap.String("key", key), zap.Error(err))
	}
}
