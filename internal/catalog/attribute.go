package catalog

import (
	"encoding/json"
	"regexp"
	"sort"
)

var attributeKeyRe = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

// ValidAttributeKey は属性キーとして使える名前か。予約パラメータは不可。
func ValidAttributeKey(key string) bool {
	if IsReservedParam(key) {
		return false
	}
	return attributeKeyRe.MatchString(key)
}

// AttributeValue は属性フィルタの値。単一値かリストかを区別して保持する。
// JSONでは "red" または ["red","blue"] になる。
type AttributeValue struct {
	values []string
	list   bool
}

// Scalar は単一値。
func Scalar(v string) AttributeValue {
	return AttributeValue{values: []string{v}}
}

// List は複数値（順序を保持、空文字は捨てる）。
func List(vs ...string) AttributeValue {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != "" {
			out = append(out, v)
		}
	}
	return AttributeValue{values: out, list: true}
}

func (v AttributeValue) IsList() bool { return v.list }

// Values はコピーを返す。
func (v AttributeValue) Values() []string {
	return append([]string(nil), v.values...)
}

// Scalar は単一値を返す（リストの場合は先頭）。
func (v AttributeValue) Scalar() string {
	if len(v.values) == 0 {
		return ""
	}
	return v.values[0]
}

// IsEmpty は空文字・空リストのとき true。
func (v AttributeValue) IsEmpty() bool {
	if len(v.values) == 0 {
		return true
	}
	return !v.list && v.values[0] == ""
}

// canonical は要素が1つのリストを単一値にする。URLでは両者を区別できないため。
func (v AttributeValue) canonical() AttributeValue {
	if v.list && len(v.values) == 1 {
		return Scalar(v.values[0])
	}
	return v
}

func (v AttributeValue) Equal(o AttributeValue) bool {
	if v.list != o.list || len(v.values) != len(o.values) {
		return false
	}
	for i := range v.values {
		if v.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.list {
		return json.Marshal(v.Values())
	}
	return json.Marshal(v.Scalar())
}

func (v *AttributeValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Scalar(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*v = List(list...)
	return nil
}

// AttributeFilters は属性キー → 値。
type AttributeFilters map[string]AttributeValue

func (f AttributeFilters) Clone() AttributeFilters {
	out := make(AttributeFilters, len(f))
	for k, v := range f {
		out[k] = AttributeValue{values: v.Values(), list: v.list}
	}
	return out
}

func (f AttributeFilters) Equal(o AttributeFilters) bool {
	if len(f) != len(o) {
		return false
	}
	for k, v := range f {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Keys はソート済みのキー一覧（SQLやURLを決定的にするため）。
func (f AttributeFilters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
