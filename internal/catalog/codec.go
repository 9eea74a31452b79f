package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// クエリパラメータ名
const (
	ParamCategorySlug = "categorySlug"
	ParamSubcategory  = "subcategoria"
	ParamPage         = "page"
	ParamPageSize     = "pageSize"
	ParamSort         = "sort"
	ParamMinPrice     = "minPrice"
	ParamMaxPrice     = "maxPrice"
	ParamInStock      = "inStock"
)

var reservedParams = map[string]struct{}{
	ParamCategorySlug: {},
	ParamSubcategory:  {},
	ParamPage:         {},
	ParamPageSize:     {},
	ParamSort:         {},
	ParamMinPrice:     {},
	ParamMaxPrice:     {},
	ParamInStock:      {},
}

// IsReservedParam は属性フィルタとして扱わないパラメータ名か。
func IsReservedParam(key string) bool {
	_, ok := reservedParams[key]
	return ok
}

// Params はクエリ文字列をゆるく解釈した結果。サーバとクライアントで共通。
// 不正な値はエラーにせずデフォルトに倒す。
type Params struct {
	CategorySlug    string
	SubcategorySlug *string
	Page            int
	// 0 は未指定
	PageSize   int
	Sort       Sort
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
	Attributes AttributeFilters
}

func ParseParams(values url.Values) Params {
	p := Params{Page: 1, Attributes: AttributeFilters{}}

	p.CategorySlug = strings.TrimSpace(values.Get(ParamCategorySlug))
	if v := strings.TrimSpace(values.Get(ParamSubcategory)); v != "" {
		p.SubcategorySlug = &v
	}

	//page（数値でない、1未満は1）
	if n, err := strconv.Atoi(values.Get(ParamPage)); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(values.Get(ParamPageSize)); err == nil && n >= 1 {
		p.PageSize = n
	}

	if s, ok := ParseSort(values.Get(ParamSort)); ok {
		p.Sort = s
	}

	p.MinPrice = parsePrice(values.Get(ParamMinPrice))
	p.MaxPrice = parsePrice(values.Get(ParamMaxPrice))

	// "true" 以外はすべて false
	p.InStock = values.Get(ParamInStock) == "true"

	for key, vs := range values {
		if !ValidAttributeKey(key) {
			continue
		}
		nonEmpty := make([]string, 0, len(vs))
		for _, v := range vs {
			if v != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}
		switch len(nonEmpty) {
		case 0:
		case 1:
			p.Attributes[key] = Scalar(nonEmpty[0])
		default:
			p.Attributes[key] = List(nonEmpty...)
		}
	}
	return p
}

func parsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return SanitizePrice(&v)
}

// Decode はブラウザURLのクエリから状態を復元する。
// categorySlug と pageSize はURLに載らないので base から引き継ぐ。
// subcategoria は knownSubcategories に含まれる場合だけ採用する。
func Decode(values url.Values, knownSubcategories []string, base FilterState) FilterState {
	p := ParseParams(values)

	st := FilterState{
		CategorySlug:     base.CategorySlug,
		Page:             p.Page,
		PageSize:         base.PageSize,
		Sort:             p.Sort,
		AttributeFilters: p.Attributes,
		MinPrice:         p.MinPrice,
		MaxPrice:         p.MaxPrice,
		InStock:          p.InStock,
	}
	if p.SubcategorySlug != nil {
		for _, known := range knownSubcategories {
			if known == *p.SubcategorySlug {
				st.SubcategorySlug = cloneString(p.SubcategorySlug)
				break
			}
		}
	}
	return st.normalize()
}

// Sanitize は生のクエリ文字列（先頭の ? は任意）を Decode する。
// 壊れたペアは読み飛ばす。
func Sanitize(rawQuery string, knownSubcategories []string, base FilterState) FilterState {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if values == nil {
		values = url.Values{}
	}
	return Decode(values, knownSubcategories, base)
}

// Encode はブラウザURL用の正規形。デフォルト値は出さない。
// リストは同じキーを繰り返し、順序は保持する。
func Encode(st FilterState) url.Values {
	v := url.Values{}

	if st.SubcategorySlug != nil && *st.SubcategorySlug != "" {
		v.Set(ParamSubcategory, *st.SubcategorySlug)
	}
	if st.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(st.Page))
	}
	if st.Sort.IsValid() {
		v.Set(ParamSort, string(st.Sort))
	}

	for _, key := range st.AttributeFilters.Keys() {
		val := st.AttributeFilters[key]
		if !ValidAttributeKey(key) || val.IsEmpty() {
			continue
		}
		if val.IsList() {
			for _, item := range val.Values() {
				v.Add(key, item)
			}
			continue
		}
		v.Set(key, val.Scalar())
	}

	if p := SanitizePrice(st.MinPrice); p != nil {
		v.Set(ParamMinPrice, FormatPrice(*p))
	}
	if p := SanitizePrice(st.MaxPrice); p != nil {
		v.Set(ParamMaxPrice, FormatPrice(*p))
	}
	if st.InStock {
		v.Set(ParamInStock, "true")
	}
	return v
}

// CanonicalQuery はキー順にソートされたクエリ文字列。キャッシュキーにも使う。
func CanonicalQuery(st FilterState) string {
	return Encode(st).Encode()
}

// BrowserPath は /categorias/{slug}?{canonical}
func BrowserPath(st FilterState) string {
	path := "/categorias/" + url.PathEscape(st.CategorySlug)
	if q := CanonicalQuery(st); q != "" {
		return path + "?" + q
	}
	return path
}

// EncodeAPI は一覧APIへのリクエスト用。categorySlug/page/pageSize は常に付ける。
func EncodeAPI(st FilterState) url.Values {
	v := Encode(st)
	v.Set(ParamCategorySlug, st.CategorySlug)

	page := st.Page
	if page < 1 {
		page = 1
	}
	v.Set(ParamPage, strconv.Itoa(page))
	v.Set(ParamPageSize, strconv.Itoa(ClampPageSize(st.PageSize)))
	return v
}

// FormatPrice は 10 → "10", 10.5 → "10.5"
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
