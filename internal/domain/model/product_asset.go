package model

type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
	AssetKindFile  AssetKind = "file"
)

type AssetSection string

const (
	AssetSectionGallery    AssetSection = "gallery"
	AssetSectionAdditional AssetSection = "additional"
	AssetSectionDownload   AssetSection = "download"
)

// 商品に紐づく画像・動画・ファイル。実体はオブジェクトストレージ（bucket + path）。
type ProductAsset struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID     int64        `gorm:"not null;index" json:"product_id"`
	Kind          AssetKind    `gorm:"type:varchar(20);not null" json:"kind"`
	Section       AssetSection `gorm:"type:varchar(20);not null;index" json:"section"`
	StorageBucket string       `gorm:"type:varchar(255);not null" json:"storage_bucket"`
	StoragePath   string       `gorm:"type:text;not null" json:"storage_path"`
	IsPrimary     bool         `gorm:"not null;default:false" json:"is_primary"`
	SortOrder     int          `gorm:"not null;default:0" json:"sort_order"`
	Alt           *string      `gorm:"type:varchar(255)" json:"alt"`
	Title         *string      `gorm:"type:varchar(255)" json:"title"`

	//公開URL（DBには持たない）
	URL string `gorm:"-" json:"url"`
}

// 詳細画面用にセクションごとに分けたもの。
type ProductAssetsGrouped struct {
	Gallery    []ProductAsset `json:"gallery"`
	Additional []ProductAsset `json:"additional"`
	Download   []ProductAsset `json:"download"`
}

// GroupAssets は並び順を保ったままセクションごとに振り分ける。
func GroupAssets(assets []ProductAsset) ProductAssetsGrouped {
	g := ProductAssetsGrouped{
		Gallery:    []ProductAsset{},
		Additional: []ProductAsset{},
		Download:   []ProductAsset{},
	}
	for _, a := range assets {
		switch a.Section {
		case AssetSectionGallery:
			g.Gallery = append(g.Gallery, a)
		case AssetSectionAdditional:
			g.Additional = append(g.Additional, a)
		case AssetSectionDownload:
			g.Download = append(g.Download, a)
		}
	}
	return g
}

// 商品詳細（商品 + カテゴリ + サブカテゴリ + assets）
type ProductDetails struct {
	Product     Product              `json:"product"`
	Category    Category             `json:"category"`
	Subcategory Subcategory          `json:"subcategory"`
	Assets      ProductAssetsGrouped `json:"assets"`
}
