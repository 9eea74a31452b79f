package catalog

// Sort は一覧の並び順。空文字は「指定なし」（newest扱い）。
type Sort string

const (
	SortNone      Sort = ""
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNameAsc   Sort = "name_asc"
	SortNameDesc  Sort = "name_desc"
	SortNewest    Sort = "newest"
)

var validSorts = map[Sort]struct{}{
	SortPriceAsc:  {},
	SortPriceDesc: {},
	SortNameAsc:   {},
	SortNameDesc:  {},
	SortNewest:    {},
}

// ParseSort は許可された値と完全一致する場合だけ ok=true を返す（大文字小文字も区別）。
func ParseSort(raw string) (Sort, bool) {
	s := Sort(raw)
	if _, ok := validSorts[s]; !ok {
		return SortNone, false
	}
	return s, true
}

func (s Sort) IsValid() bool {
	_, ok := validSorts[s]
	return ok
}
