package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理画面の作成・更新リクエスト
type ProductRequest struct {
	Name          string                 `json:"name"`
	Slug          string                 `json:"slug"`
	Description   *string                `json:"description"`
	Brand         *string                `json:"brand"`
	Price         *float64               `json:"price"`
	Stock         int64                  `json:"stock"`
	CategoryID    int64                  `json:"category_id"`
	SubcategoryID int64                  `json:"subcategory_id"`
	Images        []string               `json:"images"`
	Attributes    map[string]interface{} `json:"attributes"`
}

func (r ProductRequest) toInput() usecase.AdminProductInput {
	return usecase.AdminProductInput{
		Name:          r.Name,
		Slug:          r.Slug,
		Description:   r.Description,
		Brand:         r.Brand,
		Price:         r.Price,
		Stock:         r.Stock,
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		Images:        r.Images,
		Attributes:    r.Attributes,
	}
}

// 管理画面のレスポンスは {success, product} か {success:false, error}
type AdminProductResponse struct {
	Success bool           `json:"success"`
	Product *model.Product `json:"product,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// /api/admin/products と /api/admin/audit-logs
type AdminProductHandler struct {
	uc  *usecase.ProductUsecase
	cfg config.Config
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase, cfg config.Config) *AdminProductHandler {
	return &AdminProductHandler{uc: uc, cfg: cfg}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo) {
	admin := e.Group("/api/admin")

	admin.Use(middleware.AuthJWT(h.cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.GET("/audit-logs", h.listAuditLogs)
}

func adminFailure(c echo.Context, err error) error {
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, AdminProductResponse{Error: he.Message})
	}
	return c.JSON(http.StatusInternalServerError, AdminProductResponse{Error: "Internal server error"})
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, AdminProductResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, AdminProductResponse{Error: "unauthorized"})
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return adminFailure(c, err)
	}

	return c.JSON(http.StatusCreated, AdminProductResponse{Success: true, Product: &p})
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, AdminProductResponse{Error: "invalid id"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, AdminProductResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, AdminProductResponse{Error: "unauthorized"})
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.toInput())
	if err != nil {
		return adminFailure(c, err)
	}

	return c.JSON(http.StatusOK, AdminProductResponse{Success: true, Product: &p})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, AdminProductResponse{Error: "invalid id"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, AdminProductResponse{Error: "unauthorized"})
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return adminFailure(c, err)
	}

	return c.JSON(http.StatusOK, AdminProductResponse{Success: true})
}

// ?action=&resource_id=&limit=&offset=
func (h *AdminProductHandler) listAuditLogs(c echo.Context) error {
	var f repository.AuditLogFilter

	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resource_id"})
		}
		f.ResourceID = &id
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		f.Limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		f.Offset = n
	}

	logs, err := h.uc.ListAuditLogs(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}
