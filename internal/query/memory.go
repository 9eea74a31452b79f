package query

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"storefront/internal/domain/model"
)

// Match は Postgres 上と同じ意味で1件を評価する。
func (p Plan) Match(prod model.Product) bool {
	for _, pred := range p.Predicates {
		if !pred.Match(prod) {
			return false
		}
	}
	return true
}

// Apply は絞り込み・並び替え・ページングを行い、ページと総件数を返す。
func (p Plan) Apply(products []model.Product) ([]model.Product, int64) {
	matched := make([]model.Product, 0, len(products))
	for _, prod := range products {
		if p.Match(prod) {
			matched = append(matched, prod)
		}
	}
	total := int64(len(matched))

	sort.SliceStable(matched, func(i, j int) bool {
		return p.less(matched[i], matched[j])
	})

	//負の offset は壊れた Plan なので空ページ
	if p.Offset < 0 || p.Offset >= len(matched) {
		return []model.Product{}, total
	}
	end := p.Offset + p.Limit
	if p.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[p.Offset:end], total
}

func (pred Predicate) Match(prod model.Product) bool {
	switch pred.Op {
	case OpEq:
		switch pred.Column {
		case ColumnCategoryID:
			return prod.CategoryID == pred.ID
		case ColumnSubcategoryID:
			return prod.SubcategoryID == pred.ID
		case ColumnID:
			return prod.ID == pred.ID
		}
		return false

	case OpRange:
		var v float64
		switch pred.Column {
		case ColumnPrice:
			//NULL は比較に負ける
			if prod.Price == nil {
				return false
			}
			v = *prod.Price
		case ColumnStock:
			v = float64(prod.Stock)
		default:
			return false
		}
		if pred.Lower != nil {
			if pred.LowerExclusive && v <= *pred.Lower {
				return false
			}
			if !pred.LowerExclusive && v < *pred.Lower {
				return false
			}
		}
		if pred.Upper != nil && v > *pred.Upper {
			return false
		}
		return true

	case OpContains:
		s, ok := prod.Attributes[pred.Key].(string)
		return ok && s == pred.Value

	case OpBoolEq:
		b, ok := prod.Attributes[pred.Key].(bool)
		return ok && b == pred.Bool

	case OpAnyOf:
		text, ok := jsonText(prod.Attributes[pred.Key])
		if !ok {
			return false
		}
		for _, v := range pred.Values {
			if v == text {
				return true
			}
		}
		return false
	}
	return false
}

// jsonText は attributes->>key と同じ文字列表現。null と欠損は false。
func jsonText(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

func (p Plan) less(a, b model.Product) bool {
	for _, o := range p.Order {
		c := compareColumn(o, a, b)
		if c == 0 {
			continue
		}
		return c < 0
	}
	return false
}

// compareColumn は並び順を考慮した比較結果（負なら a が先）。
func compareColumn(o OrderTerm, a, b model.Product) int {
	dir := 1
	if o.Desc {
		dir = -1
	}

	switch o.Column {
	case ColumnPrice:
		switch {
		case a.Price == nil && b.Price == nil:
			return 0
		case a.Price == nil:
			return nullOrder(o)
		case b.Price == nil:
			return -nullOrder(o)
		}
		return dir * compareFloat(*a.Price, *b.Price)
	case ColumnName:
		return dir * strings.Compare(a.Name, b.Name)
	case ColumnCreatedAt:
		return dir * a.CreatedAt.Compare(b.CreatedAt)
	case ColumnID:
		return dir * compareInt(a.ID, b.ID)
	}
	return 0
}

// NULL の位置。Postgres は ASC で最後、DESC で最初がデフォルト。
func nullOrder(o OrderTerm) int {
	if o.NullsLast || !o.Desc {
		return 1
	}
	return -1
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
