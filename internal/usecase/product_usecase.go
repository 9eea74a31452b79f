package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain/model"
	"storefront/internal/query"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// カテゴリツリーの取得元（CategoryUsecase）。
type CategoryTreeReader interface {
	GetCategoryTree(ctx context.Context, slug string) (model.CategoryTree, error)
	Invalidate(ctx context.Context)
}

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	assetRepo    repo.ProductAssetRepository
	categoryRepo repo.CategoryRepository
	auditRepo    repo.AuditLogRepository
	tx           repo.TransactionManager
	trees        CategoryTreeReader
	urls         AssetURLResolver
	log          *zap.Logger

	defaultPageSize int
	shopPageSize    int
}

type ProductUsecaseDeps struct {
	Products        repo.ProductRepository
	Assets          repo.ProductAssetRepository
	Categories      repo.CategoryRepository
	AuditLogs       repo.AuditLogRepository
	Tx              repo.TransactionManager
	Trees           CategoryTreeReader
	URLs            AssetURLResolver
	Log             *zap.Logger
	DefaultPageSize int
	ShopPageSize    int
}

// DI
func NewProductUsecase(d ProductUsecaseDeps) *ProductUsecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.DefaultPageSize < 1 {
		d.DefaultPageSize = catalog.DefaultPageSize
	}
	if d.ShopPageSize < 1 {
		d.ShopPageSize = 3
	}
	return &ProductUsecase{
		productRepo:     d.Products,
		assetRepo:       d.Assets,
		categoryRepo:    d.Categories,
		auditRepo:       d.AuditLogs,
		tx:              d.Tx,
		trees:           d.Trees,
		urls:            d.URLs,
		log:             d.Log,
		defaultPageSize: d.DefaultPageSize,
		shopPageSize:    d.ShopPageSize,
	}
}

type CategorySummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type SubcategorySummary struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	Slug         string               `json:"slug"`
	FilterConfig []model.FilterConfig `json:"filter_config"`
}

// レスポンスに載せる解釈済みの条件。
type AppliedFilters struct {
	SubcategorySlug  *string                  `json:"subcategorySlug"`
	Page             int                      `json:"page"`
	PageSize         int                      `json:"pageSize"`
	Sort             *catalog.Sort            `json:"sort"`
	AttributeFilters catalog.AttributeFilters `json:"attributeFilters"`
	MinPrice         *float64                 `json:"minPrice"`
	MaxPrice         *float64                 `json:"maxPrice"`
	InStock          bool                     `json:"inStock"`
}

// GET /api/products の出力
type ProductListOutput struct {
	Items          []model.ProductCard `json:"items"`
	Page           int                 `json:"page"`
	PageSize       int                 `json:"pageSize"`
	Total          int64               `json:"total"`
	TotalPages     int                 `json:"totalPages"`
	Category       CategorySummary     `json:"category"`
	Subcategory    *SubcategorySummary `json:"subcategory"`
	AppliedFilters AppliedFilters      `json:"appliedFilters"`
}

// ListCategoryProducts はカテゴリ（とサブカテゴリ）配下の商品を絞り込んで返す。
func (u *ProductUsecase) ListCategoryProducts(ctx context.Context, in catalog.Params) (ProductListOutput, error) {
	if strings.TrimSpace(in.CategorySlug) == "" {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "categorySlug is required")
	}

	tree, err := u.trees.GetCategoryTree(ctx, in.CategorySlug)
	if err != nil {
		return ProductListOutput{}, err
	}

	scope := query.CategoryScope(tree.Category.ID)
	var sub *SubcategorySummary
	if in.SubcategorySlug != nil {
		s, ok := tree.FindSubcategory(*in.SubcategorySlug)
		if !ok {
			return ProductListOutput{}, NewHTTPError(http.StatusNotFound, "Subcategory not found or does not belong to this category")
		}
		scope = query.SubcategoryScope(tree.Category.ID, s.ID)
		sub = &SubcategorySummary{
			ID:           s.ID,
			Name:         s.Name,
			Slug:         s.Slug,
			FilterConfig: append([]model.FilterConfig{}, s.FilterConfig...),
		}
	}

	plan := query.Build(scope, query.Filters{
		Attributes: in.Attributes,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		InStock:    in.InStock,
		Sort:       in.Sort,
	}, query.Pagination{Page: in.Page, PageSize: in.PageSize}, u.defaultPageSize)

	products, total, err := u.productRepo.List(ctx, plan)
	if err != nil {
		u.log.Error("list category products",
			zap.String("category", in.CategorySlug),
			zap.Error(err))
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	applied := AppliedFilters{
		SubcategorySlug:  in.SubcategorySlug,
		Page:             plan.Page,
		PageSize:         plan.PageSize,
		AttributeFilters: in.Attributes.Clone(),
		MinPrice:         catalog.SanitizePrice(in.MinPrice),
		MaxPrice:         catalog.SanitizePrice(in.MaxPrice),
		InStock:          in.InStock,
	}
	if in.Sort.IsValid() {
		s := in.Sort
		applied.Sort = &s
	}

	return ProductListOutput{
		Items:      u.withImages(ctx, products),
		Page:       plan.Page,
		PageSize:   plan.PageSize,
		Total:      total,
		TotalPages: query.TotalPages(total, plan.PageSize),
		Category: CategorySummary{
			ID:   tree.Category.ID,
			Name: tree.Category.Name,
			Slug: tree.Category.Slug,
		},
		Subcategory:    sub,
		AppliedFilters: applied,
	}, nil
}

// withImages は gallery の1枚目と2枚目をカードに付ける。失敗しても画像なしで返す。
func (u *ProductUsecase) withImages(ctx context.Context, products []model.Product) []model.ProductCard {
	cards := make([]model.ProductCard, len(products))
	ids := make([]int64, len(products))
	for i, p := range products {
		cards[i] = model.ProductCard{Product: p}
		ids[i] = p.ID
	}
	if len(products) == 0 || u.assetRepo == nil {
		return cards
	}

	byProduct, err := u.assetRepo.ListGalleryImages(ctx, ids)
	if err != nil {
		u.log.Warn("list gallery images", zap.Error(err))
		return cards
	}

	for i := range cards {
		images := byProduct[cards[i].ID]
		if len(images) > 0 {
			cards[i].PrimaryImageURL = u.assetURL(images[0])
		}
		if len(images) > 1 {
			cards[i].SecondaryImageURL = u.assetURL(images[1])
		}
	}
	return cards
}

func (u *ProductUsecase) assetURL(a model.ProductAsset) *string {
	if u.urls == nil {
		return nil
	}
	s, err := u.urls.AssetURL(a)
	if err != nil {
		u.log.Warn("resolve asset url", zap.Int64("asset_id", a.ID), zap.Error(err))
		return nil
	}
	return &s
}

// GET /api/shop の入力
type ShopInput struct {
	CategoryID    int64
	SubcategoryID *int64
	Page          int
	// 残りのキーはすべて文字列の包含条件
	Filters map[string]string
}

// Total が nil なら件数不明（取得失敗）。
type ShopOutput struct {
	Products []model.Product `json:"products"`
	Total    *int64          `json:"total"`
}

// ListShopProducts はショップ版の一覧。失敗時は空リスト + 件数不明で返す。
func (u *ProductUsecase) ListShopProducts(ctx context.Context, in ShopInput) ShopOutput {
	attrs := catalog.AttributeFilters{}
	for k, v := range in.Filters {
		if v == "" || !catalog.ValidAttributeKey(k) {
			continue
		}
		attrs[k] = catalog.Scalar(v)
	}

	scope := query.CategoryScope(in.CategoryID)
	if in.SubcategoryID != nil {
		scope = query.SubcategoryScope(in.CategoryID, *in.SubcategoryID)
		scope.Both = true
	}

	plan := query.Build(scope, query.Filters{
		Attributes:   attrs,
		ContainsOnly: true,
	}, query.Pagination{Page: in.Page, PageSize: u.shopPageSize}, u.shopPageSize)

	products, total, err := u.productRepo.List(ctx, plan)
	if err != nil {
		u.log.Error("list shop products", zap.Int64("category_id", in.CategoryID), zap.Error(err))
		return ShopOutput{Products: []model.Product{}}
	}
	if products == nil {
		products = []model.Product{}
	}
	return ShopOutput{Products: products, Total: &total}
}

// GetProductDetails は商品 + カテゴリ + サブカテゴリ + assets。
func (u *ProductUsecase) GetProductDetails(ctx context.Context, productID int64) (model.ProductDetails, error) {
	if productID <= 0 {
		return model.ProductDetails{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ProductDetails{}, NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if err != nil {
		u.log.Error("find product", zap.Int64("product_id", productID), zap.Error(err))
		return model.ProductDetails{}, NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	var (
		cat    model.Category
		sub    model.Subcategory
		assets []model.ProductAsset
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cat, err = u.categoryRepo.FindCategoryByID(gctx, p.CategoryID)
		return err
	})
	g.Go(func() error {
		var err error
		sub, err = u.categoryRepo.FindSubcategoryByID(gctx, p.SubcategoryID)
		return err
	})
	g.Go(func() error {
		var err error
		assets, err = u.assetRepo.ListByProduct(gctx, p.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		u.log.Error("load product details", zap.Int64("product_id", productID), zap.Error(err))
		return model.ProductDetails{}, NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	for i := range assets {
		if s := u.assetURL(assets[i]); s != nil {
			assets[i].URL = *s
		}
	}

	return model.ProductDetails{
		Product:     p,
		Category:    cat,
		Subcategory: sub,
		Assets:      model.GroupAssets(assets),
	}, nil
}

// 管理画面からの作成・更新の入力
type AdminProductInput struct {
	Name          string
	Slug          string
	Description   *string
	Brand         *string
	Price         *float64
	Stock         int64
	CategoryID    int64
	SubcategoryID int64
	Images        []string
	Attributes    map[string]interface{}
}

func (u *ProductUsecase) validateProductInput(ctx context.Context, in AdminProductInput) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price != nil && (math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) || *in.Price < 0) {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if in.CategoryID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "category_id required")
	}
	if in.SubcategoryID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "subcategory_id required")
	}
	for k := range in.Attributes {
		if !catalog.ValidAttributeKey(k) {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid attribute key: "+k)
		}
	}

	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	} else {
		slug = Slugify(slug)
	}
	if slug == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "slug required")
	}

	//サブカテゴリがカテゴリに属しているか
	sub, err := u.categoryRepo.FindSubcategoryByID(ctx, in.SubcategoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "subcategory not found")
	}
	if err != nil {
		u.log.Error("find subcategory", zap.Int64("subcategory_id", in.SubcategoryID), zap.Error(err))
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	if sub.CategoryID != in.CategoryID {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "subcategory does not belong to category")
	}

	attrs := datatypes.JSONMap{}
	for k, v := range in.Attributes {
		attrs[k] = v
	}
	images := datatypes.JSONSlice[string]{}
	for _, img := range in.Images {
		if s := strings.TrimSpace(img); s != "" {
			images = append(images, s)
		}
	}

	return model.Product{
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Name:          name,
		Slug:          slug,
		Description:   in.Description,
		Price:         in.Price,
		Stock:         in.Stock,
		Images:        images,
		Brand:         in.Brand,
		Attributes:    attrs,
	}, nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	p, err := u.validateProductInput(ctx, in)
	if err != nil {
		return model.Product{}, err
	}

	var created model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		created, err = r.Products().Create(ctx, p)
		if err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, auditEntry(adminUserID, model.AuditActionCreateProduct, created.ID, nil, &created))
	})
	if err != nil {
		return model.Product{}, u.writeError("create product", err)
	}

	u.trees.Invalidate(ctx)
	return created, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := u.validateProductInput(ctx, in)
	if err != nil {
		return model.Product{}, err
	}
	p.ID = productID

	var updated model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前（before）
		before, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := r.Products().Update(ctx, p); err != nil {
			return err
		}
		updated, err = r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, auditEntry(adminUserID, model.AuditActionUpdateProduct, productID, &before, &updated))
	})
	if err != nil {
		return model.Product{}, u.writeError("update product", err)
	}

	u.trees.Invalidate(ctx)
	return updated, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, auditEntry(adminUserID, model.AuditActionDeleteProduct, productID, &before, nil))
	})
	if err != nil {
		return u.writeError("delete product", err)
	}

	u.trees.Invalidate(ctx)
	return nil
}

// 管理画面の監査ログ一覧
func (u *ProductUsecase) ListAuditLogs(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		u.log.Error("list audit logs", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

func (u *ProductUsecase) writeError(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "Product not found")
	case errors.Is(err, repo.ErrConflict):
		return NewHTTPError(http.StatusConflict, "slug already exists")
	}
	u.log.Error(op, zap.Error(err))
	return NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

// 監査ログを作成
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す
func auditEntry(actor int64, action model.AuditAction, productID int64, before, after *model.Product) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		Before:       snapshot(before),
		After:        snapshot(after),
		CreatedAt:    time.Now().UTC(),
	}
}

func snapshot(p *model.Product) datatypes.JSON {
	if p == nil {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
