package seed

import (
	"time"

	"storefront/internal/domain/model"

	"gorm.io/datatypes"
)

// Data は DATA_BACKEND=memory で使う初期データ。
type Data struct {
	Categories    []model.Category
	Subcategories []model.Subcategory
	Products      []model.Product
	Assets        []model.ProductAsset
}

func f(v float64) *float64 { return &v }

func s(v string) *string { return &v }

// Catalog はカテゴリ2つ・サブカテゴリ4つ・商品10件。
func Catalog() Data {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	cats := []model.Category{
		{ID: 1, Name: "Herramientas", Slug: "herramientas", CreatedAt: base},
		{ID: 2, Name: "Jardín", Slug: "jardin", CreatedAt: base},
	}

	subs := []model.Subcategory{
		{ID: 1, CategoryID: 1, Name: "Taladros", Slug: "taladros", DisplayOrder: 1, CreatedAt: base,
			FilterConfig: datatypes.JSONSlice[model.FilterConfig]{
				{Key: "color", Label: "Color", Type: model.FilterTypeCheckbox, Options: []string{"amarillo", "azul", "rojo"}},
				{Key: "inalambrico", Label: "Inalámbrico", Type: model.FilterTypeBoolean},
				{Key: "potencia", Label: "Potencia (W)", Type: model.FilterTypeRange, Min: f(300), Max: f(1500), Step: f(50)},
			}},
		{ID: 2, CategoryID: 1, Name: "Sierras", Slug: "sierras", DisplayOrder: 2, CreatedAt: base,
			FilterConfig: datatypes.JSONSlice[model.FilterConfig]{
				{Key: "tipo", Label: "Tipo", Type: model.FilterTypeSelect, Options: []string{"circular", "caladora", "sable"}},
			}},
		{ID: 3, CategoryID: 2, Name: "Mangueras", Slug: "mangueras", DisplayOrder: 1, CreatedAt: base},
		{ID: 4, CategoryID: 2, Name: "Cortadoras de césped", Slug: "cortadoras", DisplayOrder: 2, CreatedAt: base},
	}

	products := []model.Product{
		{ID: 1, CategoryID: 1, SubcategoryID: 1, Name: "Taladro percutor 650W", Slug: "taladro-percutor-650w",
			Price: f(89.9), Stock: 12, Brand: s("Bosch"), CreatedAt: at(1),
			Attributes: datatypes.JSONMap{"color": "azul", "inalambrico": false, "potencia": 650}},
		{ID: 2, CategoryID: 1, SubcategoryID: 1, Name: "Taladro inalámbrico 18V", Slug: "taladro-inalambrico-18v",
			Price: f(149), Stock: 4, Brand: s("DeWalt"), CreatedAt: at(2),
			Attributes: datatypes.JSONMap{"color": "amarillo", "inalambrico": true, "potencia": 500}},
		{ID: 3, CategoryID: 1, SubcategoryID: 1, Name: "Atornillador compacto", Slug: "atornillador-compacto",
			Price: f(59.5), Stock: 0, Brand: s("Makita"), CreatedAt: at(3),
			Attributes: datatypes.JSONMap{"color": "azul", "inalambrico": true, "potencia": 300}},
		{ID: 4, CategoryID: 1, SubcategoryID: 1, Name: "Rotomartillo SDS", Slug: "rotomartillo-sds",
			Price: f(219), Stock: 2, Brand: s("Bosch"), CreatedAt: at(4),
			Attributes: datatypes.JSONMap{"color": "rojo", "inalambrico": false, "potencia": 1100}},
		{ID: 5, CategoryID: 1, SubcategoryID: 1, Name: "Taladro de banco", Slug: "taladro-de-banco",
			Stock: 1, CreatedAt: at(5),
			Attributes: datatypes.JSONMap{"color": "rojo", "inalambrico": false, "potencia": 1500}},
		{ID: 6, CategoryID: 1, SubcategoryID: 2, Name: "Sierra circular 7 1/4", Slug: "sierra-circular-7-1-4",
			Price: f(129), Stock: 6, Brand: s("Makita"), CreatedAt: at(6),
			Attributes: datatypes.JSONMap{"tipo": "circular"}},
		{ID: 7, CategoryID: 1, SubcategoryID: 2, Name: "Sierra caladora", Slug: "sierra-caladora",
			Price: f(74), Stock: 9, Brand: s("Black+Decker"), CreatedAt: at(7),
			Attributes: datatypes.JSONMap{"tipo": "caladora"}},
		{ID: 8, CategoryID: 2, SubcategoryID: 3, Name: "Manguera 15 m", Slug: "manguera-15-m",
			Price: f(24.9), Stock: 30, CreatedAt: at(8),
			Attributes: datatypes.JSONMap{"largo": "15m"}},
		{ID: 9, CategoryID: 2, SubcategoryID: 3, Name: "Manguera extensible 30 m", Slug: "manguera-extensible-30-m",
			Price: f(39.9), Stock: 0, CreatedAt: at(9),
			Attributes: datatypes.JSONMap{"largo": "30m"}},
		{ID: 10, CategoryID: 2, SubcategoryID: 4, Name: "Cortadora eléctrica 1400W", Slug: "cortadora-electrica-1400w",
			Price: f(199), Stock: 3, Brand: s("Gardena"), CreatedAt: at(10),
			Attributes: datatypes.JSONMap{"potencia": 1400}},
	}

	assets := []model.ProductAsset{
		{ID: 1, ProductID: 1, Kind: model.AssetKindImage, Section: model.AssetSectionGallery, StorageBucket: "products", StoragePath: "1/front.jpg", IsPrimary: true},
		{ID: 2, ProductID: 1, Kind: model.AssetKindImage, Section: model.AssetSectionGallery, StorageBucket: "products", StoragePath: "1/side.jpg", SortOrder: 1},
		{ID: 3, ProductID: 1, Kind: model.AssetKindFile, Section: model.AssetSectionDownload, StorageBucket: "docs", StoragePath: "1/manual.pdf", Title: s("Manual")},
		{ID: 4, ProductID: 2, Kind: model.AssetKindImage, Section: model.AssetSectionGallery, StorageBucket: "products", StoragePath: "2/front.jpg", IsPrimary: true},
		{ID: 5, ProductID: 2, Kind: model.AssetKindVideo, Section: model.AssetSectionAdditional, StorageBucket: "videos", StoragePath: "2/demo.mp4"},
		{ID: 6, ProductID: 6, Kind: model.AssetKindImage, Section: model.AssetSectionGallery, StorageBucket: "products", StoragePath: "6/front.jpg", IsPrimary: true},
	}

	return Data{Categories: cats, Subcategories: subs, Products: products, Assets: assets}
}
