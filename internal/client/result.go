package client

import "storefront/internal/domain/model"

// Result は一覧1ページ分。Total / TotalPages が nil なら件数不明。
type Result struct {
	Items      []model.ProductCard `json:"items"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	Total      *int64              `json:"total"`
	TotalPages *int                `json:"totalPages"`
}

func (r Result) clone() Result {
	out := r
	out.Items = append([]model.ProductCard(nil), r.Items...)
	if r.Total != nil {
		t := *r.Total
		out.Total = &t
	}
	if r.TotalPages != nil {
		n := *r.TotalPages
		out.TotalPages = &n
	}
	return out
}

// ShopResult は /api/shop の応答。
type ShopResult struct {
	Products []model.Product `json:"products"`
	Total    *int64          `json:"total"`
}

func (r ShopResult) clone() ShopResult {
	out := r
	out.Products = append([]model.Product(nil), r.Products...)
	if r.Total != nil {
		t := *r.Total
		out.Total = &t
	}
	return out
}
