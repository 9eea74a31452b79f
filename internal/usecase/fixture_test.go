package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/cache"
	memrepo "storefront/internal/infra/repository"
	"storefront/internal/query"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fixture struct {
	products   *memrepo.ProductMemoryRepository
	auditLogs  *memrepo.AuditLogMemoryRepository
	categories *memrepo.CategoryMemoryRepository
	cache      *countingCache
	uc         *usecase.ProductUsecase
	catUC      *usecase.CategoryUsecase
}

// countingCache は Invalidate の回数を数える。
type countingCache struct {
	*cache.Memory
	invalidations int
}

func (c *countingCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	return c.Memory.Invalidate(ctx)
}

type fakeURLs struct{}

func (fakeURLs) AssetURL(a model.ProductAsset) (string, error) {
	if a.StoragePath == "" {
		return "", errors.New("empty path")
	}
	return "https://cdn.test/" + a.StorageBucket + "/" + a.StoragePath, nil
}

func price(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

func seedCategories() ([]model.Category, []model.Subcategory) {
	cats := []model.Category{
		{ID: 1, Name: "Herramientas", Slug: "herramientas"},
		{ID: 2, Name: "Jardin", Slug: "jardin"},
	}
	subs := []model.Subcategory{
		{ID: 10, CategoryID: 1, Name: "Taladros", Slug: "taladros", DisplayOrder: 1,
			FilterConfig: datatypes.JSONSlice[model.FilterConfig]{{Key: "color", Label: "Color", Type: model.FilterTypeCheckbox, Options: []string{"red", "blue", "green"}}}},
		{ID: 11, CategoryID: 1, Name: "Sierras", Slug: "sierras", DisplayOrder: 2},
		{ID: 20, CategoryID: 2, Name: "Mangueras", Slug: "mangueras", DisplayOrder: 1},
	}
	return cats, subs
}

func seedProducts() []model.Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	colors := []string{"red", "blue", "green", "red", "blue"}
	out := make([]model.Product, 0, 6)
	for i := 0; i < 5; i++ {
		out = append(out, model.Product{
			ID:            int64(i + 1),
			CategoryID:    1,
			SubcategoryID: 10,
			Name:          "Taladro " + string(rune('A'+i)),
			Slug:          "taladro-" + string(rune('a'+i)),
			Price:         price(float64((i + 1) * 10)),
			Stock:         int64(i % 2),
			Attributes:    datatypes.JSONMap{"color": colors[i]},
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		})
	}
	out = append(out, model.Product{
		ID: 6, CategoryID: 2, SubcategoryID: 20, Name: "Manguera", Slug: "manguera",
		Price: price(15), Stock: 3, CreatedAt: base,
	})
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cats, subs := seedCategories()
	f := &fixture{
		products:   memrepo.NewProductMemoryRepository(seedProducts()...),
		auditLogs:  memrepo.NewAuditLogMemoryRepository(),
		categories: memrepo.NewCategoryMemoryRepository(cats, subs),
		cache:      &countingCache{Memory: cache.NewMemory(5 * time.Minute)},
	}
	assets := memrepo.NewProductAssetMemoryRepository(
		model.ProductAsset{ID: 1, ProductID: 1, Kind: model.AssetKindImage, Section: model.AssetSectionGallery, StorageBucket: "products", StoragePath: "1/side.jpg", SortOrder: 1},
		model.ProductAsset{ID: 2, ProductID: 1, Kind: model.AssetKindImage, Section: model.AssetSectionGallery, StorageBucket: "products", StoragePath: "1/front.jpg", IsPrimary: true, SortOrder: 5},
		model.ProductAsset{ID: 3, ProductID: 1, Kind: model.AssetKindFile, Section: model.AssetSectionDownload, StorageBucket: "docs", StoragePath: "1/manual.pdf"},
		model.ProductAsset{ID: 4, ProductID: 1, Kind: model.AssetKindVideo, Section: model.AssetSectionAdditional, StorageBucket: "videos", StoragePath: "1/demo.mp4"},
	)

	f.catUC = usecase.NewCategoryUsecase(f.categories, f.cache, nil)
	f.uc = usecase.NewProductUsecase(usecase.ProductUsecaseDeps{
		Products:        f.products,
		Assets:          assets,
		Categories:      f.categories,
		AuditLogs:       f.auditLogs,
		Tx:              memrepo.NewTxManagerMemory(f.products, f.auditLogs),
		Trees:           f.catUC,
		URLs:            fakeURLs{},
		DefaultPageSize: 2,
		ShopPageSize:    3,
	})
	return f
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
}

// failingProducts は List が常に失敗する。
type failingProducts struct{ mock.Mock }

func (m *failingProducts) List(ctx context.Context, plan query.Plan) ([]model.Product, int64, error) {
	args := m.Called(ctx, plan)
	return nil, 0, args.Error(0)
}

func (m *failingProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	panic("not used")
}

func (m *failingProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used")
}

func (m *failingProducts) Update(ctx context.Context, p model.Product) error {
	panic("not used")
}

func (m *failingProducts) SoftDelete(ctx context.Context, id int64) error {
	panic("not used")
}

