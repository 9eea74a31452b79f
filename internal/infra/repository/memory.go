package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/query"
	repo "storefront/internal/repository"
)

// ProductMemoryRepository はDBなしで動かすための実装（開発・テスト用）。
// 絞り込みは query.Plan.Apply で行うので Postgres 版と同じ結果になる。
type ProductMemoryRepository struct {
	mu       sync.RWMutex
	products map[int64]model.Product
	nextID   int64
}

// DI
func NewProductMemoryRepository(seed ...model.Product) *ProductMemoryRepository {
	r := &ProductMemoryRepository{products: make(map[int64]model.Product), nextID: 1}
	for _, p := range seed {
		if p.ID == 0 {
			p.ID = r.nextID
		}
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductMemoryRepository) List(ctx context.Context, plan query.Plan) ([]model.Product, int64, error) {
	if err := ctx.Err(); err != nil {
		return []model.Product{}, 0, err
	}

	r.mu.RLock()
	all := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	r.mu.RUnlock()

	//map の順序に依存しないよう id 順にしてから評価
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	items, total := plan.Apply(all)
	return append([]model.Product{}, items...), total, nil
}

func (r *ProductMemoryRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *ProductMemoryRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(p.Slug, 0) {
		return model.Product{}, repo.ErrConflict
	}

	now := time.Now()
	p.ID = r.nextID
	r.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.products[p.ID] = p
	return p, nil
}

func (r *ProductMemoryRepository) Update(ctx context.Context, p model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.products[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if r.slugTaken(p.Slug, p.ID) {
		return repo.ErrConflict
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now()
	r.products[p.ID] = p
	return nil
}

func (r *ProductMemoryRepository) SoftDelete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *ProductMemoryRepository) slugTaken(slug string, exceptID int64) bool {
	for id, p := range r.products {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

// CategoryMemoryRepository はカテゴリとサブカテゴリを保持する。
type CategoryMemoryRepository struct {
	mu            sync.RWMutex
	categories    []model.Category
	subcategories []model.Subcategory
}

func NewCategoryMemoryRepository(categories []model.Category, subcategories []model.Subcategory) *CategoryMemoryRepository {
	return &CategoryMemoryRepository{
		categories:    append([]model.Category(nil), categories...),
		subcategories: append([]model.Subcategory(nil), subcategories...),
	}
}

func (r *CategoryMemoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]model.Category{}, r.categories...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *CategoryMemoryRepository) FindCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return model.Category{}, repo.ErrNotFound
}

func (r *CategoryMemoryRepository) FindCategoryByID(ctx context.Context, id int64) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Category{}, repo.ErrNotFound
}

func (r *CategoryMemoryRepository) ListSubcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Subcategory{}
	for _, s := range r.subcategories {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *CategoryMemoryRepository) FindSubcategoryByID(ctx context.Context, id int64) (model.Subcategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.subcategories {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Subcategory{}, repo.ErrNotFound
}

// ProductAssetMemoryRepository
type ProductAssetMemoryRepository struct {
	mu     sync.RWMutex
	assets []model.ProductAsset
}

func NewProductAssetMemoryRepository(assets ...model.ProductAsset) *ProductAssetMemoryRepository {
	return &ProductAssetMemoryRepository{assets: append([]model.ProductAsset(nil), assets...)}
}

func (r *ProductAssetMemoryRepository) ListByProduct(ctx context.Context, productID int64) ([]model.ProductAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.ProductAsset{}
	for _, a := range r.assets {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	sortAssets(out)
	return out, nil
}

func (r *ProductAssetMemoryRepository) ListGalleryImages(ctx context.Context, productIDs []int64) (map[int64][]model.ProductAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		want[id] = struct{}{}
	}

	out := make(map[int64][]model.ProductAsset, len(productIDs))
	for _, a := range r.assets {
		if _, ok := want[a.ProductID]; !ok {
			continue
		}
		if a.Section != model.AssetSectionGallery || a.Kind != model.AssetKindImage {
			continue
		}
		out[a.ProductID] = append(out[a.ProductID], a)
	}
	for id := range out {
		sortAssets(out[id])
	}
	return out, nil
}

// is_primary DESC, sort_order ASC, id ASC
func sortAssets(assets []model.ProductAsset) {
	sort.SliceStable(assets, func(i, j int) bool {
		a, b := assets[i], assets[j]
		if a.IsPrimary != b.IsPrimary {
			return a.IsPrimary
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})
}

// AuditLogMemoryRepository
type AuditLogMemoryRepository struct {
	mu     sync.RWMutex
	logs   []model.AuditLog
	nextID int64
}

func NewAuditLogMemoryRepository() *AuditLogMemoryRepository {
	return &AuditLogMemoryRepository{nextID: 1}
}

func (r *AuditLogMemoryRepository) Create(ctx context.Context, log model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.ID = r.nextID
	r.nextID++
	r.logs = append(r.logs, log)
	return nil
}

func (r *AuditLogMemoryRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.AuditLog{}
	//新しい順
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if filter.ActorUserID != nil && l.ActorUserID != *filter.ActorUserID {
			continue
		}
		if filter.Action != nil && l.Action != *filter.Action {
			continue
		}
		if filter.ResourceType != nil && l.ResourceType != *filter.ResourceType {
			continue
		}
		if filter.ResourceID != nil && l.ResourceID != *filter.ResourceID {
			continue
		}
		if filter.CreatedFrom != nil && l.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && l.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, l)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []model.AuditLog{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

// TxManagerMemory はロールバックしない。メモリ版では途中失敗を想定しない。
type TxManagerMemory struct {
	products  *ProductMemoryRepository
	auditLogs *AuditLogMemoryRepository
}

func NewTxManagerMemory(products *ProductMemoryRepository, auditLogs *AuditLogMemoryRepository) *TxManagerMemory {
	return &TxManagerMemory{products: products, auditLogs: auditLogs}
}

func (tm *TxManagerMemory) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(&txRepos{products: tm.products, auditLogs: tm.auditLogs})
}
