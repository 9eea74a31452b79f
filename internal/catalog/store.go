package catalog

import "sync"

// Listener は状態変更の通知先。
type Listener func(FilterState)

type subscription struct {
	id int
	fn Listener
}

// Store は FilterState の置き場所。変更は必ずセッター経由で行い、
// 変更のたびに購読者へ新しい状態を同期的に通知する。
type Store struct {
	mu        sync.Mutex
	state     FilterState
	nextID    int
	listeners []subscription
}

// DI
func NewStore(initial FilterState) *Store {
	return &Store{state: initial.Clone().normalize()}
}

// State は現在の状態のコピー。
func (s *Store) State() FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// HasActiveFilters は現在の状態に絞り込みがあるか。
func (s *Store) HasActiveFilters() bool {
	return s.State().HasActiveFilters()
}

// Subscribe は購読を登録し、解除関数を返す。通知は登録順。
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Init は状態を丸ごと置き換える。ゼロ値のフィールドはデフォルトになる。
func (s *Store) Init(partial FilterState) {
	s.update(func(st *FilterState) {
		*st = partial.Clone()
	})
}

// SetPage は 1 未満を 1 に丸める。
func (s *Store) SetPage(page int) {
	s.update(func(st *FilterState) {
		st.Page = page
	})
}

// SetPageSize は 1..50 に丸めて page を 1 に戻す。
func (s *Store) SetPageSize(size int) {
	s.update(func(st *FilterState) {
		if size < 1 {
			size = 1
		}
		st.PageSize = size
		st.Page = 1
	})
}

func (s *Store) SetSort(sort Sort) {
	s.update(func(st *FilterState) {
		st.Sort = sort
		st.Page = 1
	})
}

// SetSubcategory はサブカテゴリを切り替える。
// 絞り込める属性はサブカテゴリごとに違うので属性フィルタもクリアする。
func (s *Store) SetSubcategory(slug *string) {
	s.update(func(st *FilterState) {
		st.SubcategorySlug = cloneString(slug)
		st.AttributeFilters = AttributeFilters{}
		st.Page = 1
	})
}

// SetAttributeFilter は空文字・空リスト・ゼロ値ならキーを削除、それ以外は上書き。
// 要素が1つのリストは単一値として保持する。
// 予約パラメータ名や不正なキーは無視する（通知もしない）。
func (s *Store) SetAttributeFilter(key string, value AttributeValue) {
	if !ValidAttributeKey(key) {
		return
	}
	s.update(func(st *FilterState) {
		if value.IsEmpty() {
			delete(st.AttributeFilters, key)
		} else if value.IsList() {
			st.AttributeFilters[key] = List(value.Values()...)
		} else {
			st.AttributeFilters[key] = Scalar(value.Scalar())
		}
		st.Page = 1
	})
}

// RemoveAttributeFilter は SetAttributeFilter(key, AttributeValue{}) と同じ。
func (s *Store) RemoveAttributeFilter(key string) {
	s.SetAttributeFilter(key, AttributeValue{})
}

func (s *Store) SetPriceRange(min, max *float64) {
	s.update(func(st *FilterState) {
		st.MinPrice = cloneFloat(min)
		st.MaxPrice = cloneFloat(max)
		st.Page = 1
	})
}

func (s *Store) SetInStock(inStock bool) {
	s.update(func(st *FilterState) {
		st.InStock = inStock
		st.Page = 1
	})
}

// ResetFilters は categorySlug と pageSize だけ残して初期化する。
func (s *Store) ResetFilters() {
	s.update(func(st *FilterState) {
		next := DefaultState(st.CategorySlug)
		next.PageSize = st.PageSize
		*st = next
	})
}

// update はロック内で状態を書き換え、ロック解放後に購読者へ通知する。
func (s *Store) update(fn func(st *FilterState)) {
	s.mu.Lock()
	next := s.state.Clone()
	fn(&next)
	s.state = next.normalize()
	snapshot := s.state
	listeners := append([]subscription(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(snapshot.Clone())
	}
}
