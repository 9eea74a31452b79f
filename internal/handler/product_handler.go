package handler

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/catalog"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 一覧・ショップ・詳細の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/products", h.list)
	e.GET("/api/products/:id", h.detail)
	e.GET("/api/shop", h.shop)
}

// 不正なパラメータは400にせずデフォルトに倒す（categorySlug だけ必須）
func (h *ProductHandler) list(c echo.Context) error {
	in := catalog.ParseParams(c.QueryParams())

	out, err := h.uc.ListCategoryProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

const (
	shopParamCategoryID    = "categoryId"
	shopParamSubcategoryID = "subcategoryId"
	shopParamPage          = "page"
)

// ショップ版は失敗しても200で {products:[], total:null} を返す
func (h *ProductHandler) shop(c echo.Context) error {
	q := c.QueryParams()

	in := usecase.ShopInput{Page: 1, Filters: map[string]string{}}
	if n, err := strconv.ParseInt(q.Get(shopParamCategoryID), 10, 64); err == nil {
		in.CategoryID = n
	}
	if n, err := strconv.ParseInt(q.Get(shopParamSubcategoryID), 10, 64); err == nil && n > 0 {
		in.SubcategoryID = &n
	}
	if n, err := strconv.Atoi(q.Get(shopParamPage)); err == nil && n >= 1 {
		in.Page = n
	}
	for key := range q {
		switch key {
		case shopParamCategoryID, shopParamSubcategoryID, shopParamPage:
			continue
		}
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			in.Filters[key] = v
		}
	}

	return c.JSON(http.StatusOK, h.uc.ListShopProducts(c.Request().Context(), in))
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	d, err := h.uc.GetProductDetails(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
