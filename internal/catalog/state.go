package catalog

import "math"

const (
	// DefaultPageSize はページサイズ未指定時の値。
	DefaultPageSize = 2
	MaxPageSize     = 50
)

// FilterState はカテゴリページの絞り込み状態。URLと1対1に対応する。
type FilterState struct {
	CategorySlug     string
	SubcategorySlug  *string
	Page             int
	PageSize         int
	Sort             Sort
	AttributeFilters AttributeFilters
	MinPrice         *float64
	MaxPrice         *float64
	InStock          bool
}

// DefaultState はカテゴリの初期状態。
func DefaultState(categorySlug string) FilterState {
	return FilterState{
		CategorySlug:     categorySlug,
		Page:             1,
		PageSize:         DefaultPageSize,
		AttributeFilters: AttributeFilters{},
	}
}

// Clone はポインタとmapを複製したコピー。
func (s FilterState) Clone() FilterState {
	out := s
	out.SubcategorySlug = cloneString(s.SubcategorySlug)
	out.MinPrice = cloneFloat(s.MinPrice)
	out.MaxPrice = cloneFloat(s.MaxPrice)
	if s.AttributeFilters == nil {
		out.AttributeFilters = AttributeFilters{}
	} else {
		out.AttributeFilters = s.AttributeFilters.Clone()
	}
	return out
}

func (s FilterState) Equal(o FilterState) bool {
	return s.CategorySlug == o.CategorySlug &&
		equalString(s.SubcategorySlug, o.SubcategorySlug) &&
		s.Page == o.Page &&
		s.PageSize == o.PageSize &&
		s.Sort == o.Sort &&
		s.AttributeFilters.Equal(o.AttributeFilters) &&
		equalFloat(s.MinPrice, o.MinPrice) &&
		equalFloat(s.MaxPrice, o.MaxPrice) &&
		s.InStock == o.InStock
}

// HasActiveFilters はページ・ページサイズ以外に何か指定されているか。
func (s FilterState) HasActiveFilters() bool {
	return s.SubcategorySlug != nil ||
		len(s.AttributeFilters) > 0 ||
		s.MinPrice != nil ||
		s.MaxPrice != nil ||
		s.InStock ||
		s.Sort != SortNone
}

// normalize は不変条件を満たすように丸める（page>=1, pageSize 1..50, 空フィルタ除去, 1要素リストは単一値）。
func (s FilterState) normalize() FilterState {
	if s.Page < 1 {
		s.Page = 1
	}
	s.PageSize = ClampPageSize(s.PageSize)
	if !s.Sort.IsValid() {
		s.Sort = SortNone
	}
	s.MinPrice = SanitizePrice(s.MinPrice)
	s.MaxPrice = SanitizePrice(s.MaxPrice)

	filters := AttributeFilters{}
	for k, v := range s.AttributeFilters {
		if v.IsEmpty() || !ValidAttributeKey(k) {
			continue
		}
		filters[k] = v.canonical()
	}
	s.AttributeFilters = filters
	return s
}

// ClampPageSize は 0 以下をデフォルト、上限超えを 50 にする。
func ClampPageSize(n int) int {
	if n < 1 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// SanitizePrice は NaN/Inf/負数を nil にする。
func SanitizePrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
