// Package query は絞り込み条件を述語のリスト（Plan）に組み立てる。
// Plan は gorm（infra/repository）かメモリ上（Apply）で実行する。
package query

import (
	"math"

	"storefront/internal/catalog"
)

// Op は述語の種類。
type Op string

const (
	// 列の等値（category_id など）
	OpEq Op = "eq"
	// 数値の範囲（price, stock）
	OpRange Op = "range"
	// attributes @> {key: value}
	OpContains Op = "contains"
	// attributes @> {key: true|false}
	OpBoolEq Op = "bool_eq"
	// attributes->>key IN (...)
	OpAnyOf Op = "any_of"
)

// 列名
const (
	ColumnCategoryID    = "category_id"
	ColumnSubcategoryID = "subcategory_id"
	ColumnPrice         = "price"
	ColumnStock         = "stock"
	ColumnName          = "name"
	ColumnCreatedAt     = "created_at"
	ColumnID            = "id"
)

// Predicate はタグ付きの条件1つ。Op によって使うフィールドが違う。
type Predicate struct {
	Op Op

	// OpEq / OpRange の列
	Column string
	// OpEq の値
	ID int64

	// OpRange（nil は上限・下限なし）
	Lower          *float64
	LowerExclusive bool
	Upper          *float64

	// JSON属性の述語
	Key    string
	Value  string
	Bool   bool
	Values []string
}

func Eq(column string, id int64) Predicate {
	return Predicate{Op: OpEq, Column: column, ID: id}
}

func Range(column string, lower, upper *float64) Predicate {
	return Predicate{Op: OpRange, Column: column, Lower: lower, Upper: upper}
}

// GreaterThan は column > v
func GreaterThan(column string, v float64) Predicate {
	return Predicate{Op: OpRange, Column: column, Lower: &v, LowerExclusive: true}
}

func Contains(key, value string) Predicate {
	return Predicate{Op: OpContains, Key: key, Value: value}
}

func BoolEq(key string, v bool) Predicate {
	return Predicate{Op: OpBoolEq, Key: key, Bool: v}
}

func AnyOf(key string, values ...string) Predicate {
	return Predicate{Op: OpAnyOf, Key: key, Values: append([]string(nil), values...)}
}

// OrderTerm は ORDER BY の1項目。
type OrderTerm struct {
	Column    string
	Desc      bool
	NullsLast bool
}

// SQL は "price DESC NULLS LAST" の形。
func (o OrderTerm) SQL() string {
	s := o.Column + " ASC"
	if o.Desc {
		s = o.Column + " DESC"
	}
	if o.NullsLast {
		s += " NULLS LAST"
	}
	return s
}

// Scope は一覧の対象範囲。SubcategoryID があればそちらを優先する。
type Scope struct {
	CategoryID    int64
	SubcategoryID *int64
	// true なら category_id と subcategory_id の両方で絞る（ショップ版）
	Both bool
}

func CategoryScope(id int64) Scope { return Scope{CategoryID: id} }

func SubcategoryScope(categoryID, subcategoryID int64) Scope {
	return Scope{CategoryID: categoryID, SubcategoryID: &subcategoryID}
}

// Filters は属性・価格・在庫・並び順。
type Filters struct {
	Attributes catalog.AttributeFilters
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
	Sort       catalog.Sort

	// true なら属性をすべて文字列の包含条件として扱う（ショップ版）
	ContainsOnly bool
}

type Pagination struct {
	Page     int
	PageSize int
}

// NormalizePagination は page>=1, pageSize 1..50（未指定は defaultSize）に丸める。
// page は (page-1)*pageSize が int に収まる範囲までに抑える。
func NormalizePagination(p Pagination, defaultSize int) Pagination {
	if defaultSize < 1 {
		defaultSize = catalog.DefaultPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	if p.PageSize > catalog.MaxPageSize {
		p.PageSize = catalog.MaxPageSize
	}
	if maxPage := math.MaxInt / p.PageSize; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

// TotalPages は ceil(total/pageSize)。0件なら0。
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// Plan は組み立て済みのクエリ。Where は Predicates の AND。
type Plan struct {
	Predicates []Predicate
	Order      []OrderTerm
	Page       int
	PageSize   int
	Offset     int
	Limit      int
}

// Build は scope/filters/pagination から Plan を作る。
// 条件の順番は scope → price → stock → 属性（キー昇順）で固定。
func Build(scope Scope, f Filters, p Pagination, defaultPageSize int) Plan {
	p = NormalizePagination(p, defaultPageSize)

	plan := Plan{
		Page:     p.Page,
		PageSize: p.PageSize,
		Offset:   (p.Page - 1) * p.PageSize,
		Limit:    p.PageSize,
	}

	//scope
	switch {
	case scope.SubcategoryID != nil && scope.Both:
		plan.Predicates = append(plan.Predicates,
			Eq(ColumnCategoryID, scope.CategoryID),
			Eq(ColumnSubcategoryID, *scope.SubcategoryID))
	case scope.SubcategoryID != nil:
		plan.Predicates = append(plan.Predicates, Eq(ColumnSubcategoryID, *scope.SubcategoryID))
	default:
		plan.Predicates = append(plan.Predicates, Eq(ColumnCategoryID, scope.CategoryID))
	}

	//価格帯
	minPrice := catalog.SanitizePrice(f.MinPrice)
	maxPrice := catalog.SanitizePrice(f.MaxPrice)
	if minPrice != nil || maxPrice != nil {
		plan.Predicates = append(plan.Predicates, Range(ColumnPrice, minPrice, maxPrice))
	}

	//在庫あり
	if f.InStock {
		plan.Predicates = append(plan.Predicates, GreaterThan(ColumnStock, 0))
	}

	//属性（JSONB）
	for _, key := range f.Attributes.Keys() {
		if !catalog.ValidAttributeKey(key) {
			continue
		}
		v := f.Attributes[key]
		if v.IsEmpty() {
			continue
		}
		plan.Predicates = append(plan.Predicates, attributePredicate(key, v, f.ContainsOnly))
	}

	plan.Order = OrderFor(f.Sort)
	return plan
}

func attributePredicate(key string, v catalog.AttributeValue, containsOnly bool) Predicate {
	if containsOnly {
		return Contains(key, v.Scalar())
	}
	if v.IsList() {
		return AnyOf(key, v.Values()...)
	}
	switch v.Scalar() {
	case "true":
		return BoolEq(key, true)
	case "false":
		return BoolEq(key, false)
	default:
		return Contains(key, v.Scalar())
	}
}

// OrderFor は並び順と id による同順位の解消。
func OrderFor(sort catalog.Sort) []OrderTerm {
	switch sort {
	case catalog.SortPriceAsc:
		return []OrderTerm{{Column: ColumnPrice, NullsLast: true}, {Column: ColumnID}}
	case catalog.SortPriceDesc:
		return []OrderTerm{{Column: ColumnPrice, Desc: true, NullsLast: true}, {Column: ColumnID}}
	case catalog.SortNameAsc:
		return []OrderTerm{{Column: ColumnName}, {Column: ColumnID}}
	case catalog.SortNameDesc:
		return []OrderTerm{{Column: ColumnName, Desc: true}, {Column: ColumnID}}
	default:
		return []OrderTerm{{Column: ColumnCreatedAt, Desc: true}, {Column: ColumnID, Desc: true}}
	}
}
