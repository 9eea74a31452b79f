package client

import (
	"sync"

	"storefront/internal/domain/model"
)

// ProductsState は画面に出す一覧の状態。
type ProductsState struct {
	Result
	Loading bool
	Err     error
}

type ProductsListener func(ProductsState)

type productsSubscription struct {
	id int
	fn ProductsListener
}

// ProductsStore は一覧結果と読み込み状態。通知の約束は catalog.Store と同じ。
type ProductsStore struct {
	mu        sync.Mutex
	state     ProductsState
	nextID    int
	listeners []productsSubscription
}

func NewProductsStore() *ProductsStore {
	return &ProductsStore{state: ProductsState{Result: Result{Items: []model.ProductCard{}}}}
}

func (s *ProductsStore) State() ProductsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Result = s.state.Result.clone()
	return out
}

func (s *ProductsStore) Subscribe(fn ProductsListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, productsSubscription{id: id, fn: fn})
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

// SetLoading は前の結果を残したまま読み込み中にする。
func (s *ProductsStore) SetLoading() {
	s.update(func(st *ProductsState) {
		st.Loading = true
		st.Err = nil
	})
}

func (s *ProductsStore) SetResult(r Result) {
	s.SetResultIf(nil, r)
}

// SetError は前の結果を残す。
func (s *ProductsStore) SetError(err error) {
	s.SetErrorIf(nil, err)
}

// SetResultIf は current() が true のときだけ反映する（nil なら常に反映）。
// 判定はストアのロック内、通知はロック解放後なので、購読者からフィルタを変えてよい。
func (s *ProductsStore) SetResultIf(current func() bool, r Result) bool {
	return s.updateIf(current, func(st *ProductsState) {
		st.Result = r.clone()
		if st.Items == nil {
			st.Items = []model.ProductCard{}
		}
		st.Loading = false
		st.Err = nil
	})
}

func (s *ProductsStore) SetErrorIf(current func() bool, err error) bool {
	return s.updateIf(current, func(st *ProductsState) {
		st.Loading = false
		st.Err = err
	})
}

func (s *ProductsStore) update(fn func(st *ProductsState)) {
	s.updateIf(nil, fn)
}

// updateIf は guard が false なら何もせず通知もしない。
func (s *ProductsStore) updateIf(guard func() bool, fn func(st *ProductsState)) bool {
	s.mu.Lock()
	if guard != nil && !guard() {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	snapshot := s.state
	snapshot.Result = s.state.Result.clone()
	listeners := append([]productsSubscription(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(snapshot)
	}
	return true
}
