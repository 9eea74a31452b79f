package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"storefront/internal/catalog"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// ListCategoryProducts
// =====================

func TestProductUsecase_ListCategoryProducts_RequiresCategorySlug(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ListCategoryProducts(context.Background(), catalog.Params{Page: 1})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestProductUsecase_ListCategoryProducts_UnknownCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ListCategoryProducts(context.Background(), catalog.Params{CategorySlug: "nope", Page: 1})
	assertStatus(t, err, http.StatusNotFound)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, "Category not found", he.Message)
}

func TestProductUsecase_ListCategoryProducts_SubcategoryOfOtherCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ListCategoryProducts(context.Background(), catalog.Params{
		CategorySlug:    "herramientas",
		SubcategorySlug: strPtr("mangueras"),
		Page:            1,
	})
	assertStatus(t, err, http.StatusNotFound)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, "Subcategory not found or does not belong to this category", he.Message)
}

func TestProductUsecase_ListCategoryProducts_SecondPageInSortOrder(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.ListCategoryProducts(context.Background(), catalog.Params{
		CategorySlug: "herramientas",
		Page:         2,
		PageSize:     2,
		Sort:         catalog.SortPriceAsc,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), out.Total)
	assert.Equal(t, 3, out.TotalPages)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 2, out.PageSize)
	require.Len(t, out.Items, 2)
	assert.Equal(t, 30.0, *out.Items[0].Price)
	assert.Equal(t, 40.0, *out.Items[1].Price)

	assert.Equal(t, "herramientas", out.Category.Slug)
	assert.Nil(t, out.Subcategory)
	require.NotNil(t, out.AppliedFilters.Sort)
	assert.Equal(t, catalog.SortPriceAsc, *out.AppliedFilters.Sort)
}

func TestProductUsecase_ListCategoryProducts_DefaultPageSize(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.ListCategoryProducts(context.Background(), catalog.Params{CategorySlug: "herramientas", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, out.PageSize)
	assert.Nil(t, out.AppliedFilters.Sort)

	//並び順未指定は新しい順
	require.Len(t, out.Items, 2)
	assert.Equal(t, int64(5), out.Items[0].ID)
	assert.Equal(t, int64(4), out.Items[1].ID)
}

func TestProductUsecase_ListCategoryProducts_ListFilterIsUnion(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.ListCategoryProducts(context.Background(), catalog.Params{
		CategorySlug:    "herramientas",
		SubcategorySlug: strPtr("taladros"),
		Page:            1,
		PageSize:        10,
		Sort:            catalog.SortPriceAsc,
		Attributes:      catalog.AttributeFilters{"color": catalog.List("red", "blue")},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), out.Total)
	ids := make([]int64, 0, len(out.Items))
	for _, it := range out.Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int64{1, 2, 4, 5}, ids)

	require.NotNil(t, out.Subcategory)
	assert.Equal(t, "taladros", out.Subcategory.Slug)
	require.Len(t, out.Subcategory.FilterConfig, 1)
	assert.Equal(t, "color", out.Subcategory.FilterConfig[0].Key)
}

func TestProductUsecase_ListCategoryProducts_InStockAndPrice(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.ListCategoryProducts(context.Background(), catalog.Params{
		CategorySlug: "herramientas",
		Page:         1,
		PageSize:     10,
		InStock:      true,
		MinPrice:     price(15),
		MaxPrice:     price(40),
	})
	require.NoError(t, err)

	//stock は i%2 なので 2,4 番目
	assert.Equal(t, int64(2), out.Total)
	for _, it := range out.Items {
		assert.Greater(t, it.Stock, int64(0))
	}
}

func TestProductUsecase_ListCategoryProducts_GalleryImages(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.ListCategoryProducts(context.Background(), catalog.Params{
		CategorySlug: "herramientas",
		Page:         1,
		PageSize:     10,
		Sort:         catalog.SortPriceAsc,
	})
	require.NoError(t, err)

	first := out.Items[0]
	require.Equal(t, int64(1), first.ID)
	require.NotNil(t, first.PrimaryImageURL)
	require.NotNil(t, first.SecondaryImageURL)
	assert.Equal(t, "https://cdn.test/products/1/front.jpg", *first.PrimaryImageURL)
	assert.Equal(t, "https://cdn.test/products/1/side.jpg", *first.SecondaryImageURL)

	assert.Nil(t, out.Items[1].PrimaryImageURL)
}

func TestProductUsecase_ListCategoryProducts_RepoFailureIs500(t *testing.T) {
	f := newFixture(t)
	products := new(failingProducts)
	products.On("List", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	uc := usecase.NewProductUsecase(usecase.ProductUsecaseDeps{
		Products:   products,
		Categories: f.categories,
		Trees:      f.catUC,
	})

	_, err := uc.ListCategoryProducts(context.Background(), catalog.Params{CategorySlug: "herramientas", Page: 1})
	assertStatus(t, err, http.StatusInternalServerError)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, "Internal server error", he.Message)
	products.AssertExpectations(t)
}

// =====================
// ListShopProducts
// =====================

func TestProductUsecase_ListShopProducts_ContainsFilter(t *testing.T) {
	f := newFixture(t)
	sub := int64(10)

	out := f.uc.ListShopProducts(context.Background(), usecase.ShopInput{
		CategoryID:    1,
		SubcategoryID: &sub,
		Page:          1,
		Filters:       map[string]string{"color": "red", "sort": "x"},
	})

	//JSONB の包含なので完全一致。予約名のキーは捨てる
	require.NotNil(t, out.Total)
	assert.Equal(t, int64(2), *out.Total)
	assert.Len(t, out.Products, 2)
}

func TestProductUsecase_ListShopProducts_FixedPageSize(t *testing.T) {
	f := newFixture(t)

	out := f.uc.ListShopProducts(context.Background(), usecase.ShopInput{CategoryID: 1, Page: 2})

	require.NotNil(t, out.Total)
	assert.Equal(t, int64(5), *out.Total)
	assert.Len(t, out.Products, 2)
}

func TestProductUsecase_ListShopProducts_DegradesOnFailure(t *testing.T) {
	products := new(failingProducts)
	products.On("List", mock.Anything, mock.Anything).Return(errors.New("timeout"))
	uc := usecase.NewProductUsecase(usecase.ProductUsecaseDeps{Products: products})

	out := uc.ListShopProducts(context.Background(), usecase.ShopInput{CategoryID: 1, Page: 1})

	assert.Nil(t, out.Total)
	assert.NotNil(t, out.Products)
	assert.Empty(t, out.Products)
}

// =====================
// GetProductDetails
// =====================

func TestProductUsecase_GetProductDetails_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.GetProductDetails(context.Background(), 999)
	assertStatus(t, err, http.StatusNotFound)
}

func TestProductUsecase_GetProductDetails_GroupsAssets(t *testing.T) {
	f := newFixture(t)

	d, err := f.uc.GetProductDetails(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Herramientas", d.Category.Name)
	assert.Equal(t, "Taladros", d.Subcategory.Name)
	require.Len(t, d.Assets.Gallery, 2)
	assert.Equal(t, int64(2), d.Assets.Gallery[0].ID)
	assert.Equal(t, "https://cdn.test/products/1/front.jpg", d.Assets.Gallery[0].URL)
	assert.Len(t, d.Assets.Additional, 1)
	assert.Len(t, d.Assets.Download, 1)
	assert.Equal(t, "https://cdn.test/docs/1/manual.pdf", d.Assets.Download[0].URL)
}

// =====================
// Admin: Product CRUD
// =====================

func validInput() usecase.AdminProductInput {
	return usecase.AdminProductInput{
		Name:          " Taladro Percutor Ñandú ",
		Price:         price(120),
		Stock:         4,
		CategoryID:    1,
		SubcategoryID: 10,
		Attributes:    map[string]interface{}{"color": "red"},
	}
}

func TestProductUsecase_AdminCreateProduct_Unauthorized(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.AdminCreateProduct(context.Background(), 0, validInput())
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestProductUsecase_AdminCreateProduct_Validation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]func(in *usecase.AdminProductInput){
		"name required":           func(in *usecase.AdminProductInput) { in.Name = " " },
		"price must be >= 0":      func(in *usecase.AdminProductInput) { in.Price = price(-1) },
		"stock must be >= 0":      func(in *usecase.AdminProductInput) { in.Stock = -1 },
		"category_id required":    func(in *usecase.AdminProductInput) { in.CategoryID = 0 },
		"subcategory_id required": func(in *usecase.AdminProductInput) { in.SubcategoryID = 0 },
		"invalid attribute key":   func(in *usecase.AdminProductInput) { in.Attributes = map[string]interface{}{"bad key": 1} },
		"does not belong":         func(in *usecase.AdminProductInput) { in.SubcategoryID = 20 },
	}
	for want, mutate := range cases {
		t.Run(want, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := f.uc.AdminCreateProduct(context.Background(), 1, in)
			assertStatus(t, err, http.StatusBadRequest)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestProductUsecase_AdminCreateProduct_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.uc.AdminCreateProduct(ctx, 7, validInput())
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.Equal(t, "Taladro Percutor Ñandú", p.Name)
	assert.Equal(t, "taladro-percutor-nandu", p.Slug)
	assert.Equal(t, 1, f.cache.invalidations)

	logs, err := f.uc.ListAuditLogs(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionCreateProduct, logs[0].Action)
	assert.Equal(t, int64(7), logs[0].ActorUserID)
	assert.Equal(t, p.ID, logs[0].ResourceID)
	assert.Nil(t, logs[0].Before)
	assert.Contains(t, string(logs[0].After), `"slug":"taladro-percutor-nandu"`)
}

func TestProductUsecase_AdminCreateProduct_SlugConflict(t *testing.T) {
	f := newFixture(t)

	in := validInput()
	in.Slug = "taladro-a"
	_, err := f.uc.AdminCreateProduct(context.Background(), 1, in)
	assertStatus(t, err, http.StatusConflict)
	assert.Equal(t, 0, f.cache.invalidations)
}

func TestProductUsecase_AdminUpdateProduct_RecordsBeforeAndAfter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput()
	in.Name = "Taladro A Pro"
	in.Slug = "taladro-a"
	p, err := f.uc.AdminUpdateProduct(ctx, 3, 1, in)
	require.NoError(t, err)
	assert.Equal(t, "Taladro A Pro", p.Name)

	logs, err := f.uc.ListAuditLogs(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionUpdateProduct, logs[0].Action)
	assert.Contains(t, string(logs[0].Before), `"name":"Taladro A"`)
	assert.Contains(t, string(logs[0].After), `"name":"Taladro A Pro"`)
}

func TestProductUsecase_AdminUpdateProduct_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.AdminUpdateProduct(context.Background(), 1, 999, validInput())
	assertStatus(t, err, http.StatusNotFound)
}

func TestProductUsecase_AdminDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.AdminDeleteProduct(ctx, 1, 2))

	_, err := f.uc.GetProductDetails(ctx, 2)
	assertStatus(t, err, http.StatusNotFound)

	err = f.uc.AdminDeleteProduct(ctx, 1, 2)
	assertStatus(t, err, http.StatusNotFound)

	action := model.AuditActionDeleteProduct
	logs, err := f.uc.ListAuditLogs(ctx, repo.AuditLogFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].After)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "sierra-circular-7-1-4", usecase.Slugify("Sierra Circular 7 1/4\""))
	assert.Equal(t, "cafe-con-leche", usecase.Slugify("  Café con Leche!! "))
	assert.Equal(t, "", usecase.Slugify("!!!"))
}
