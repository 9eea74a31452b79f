package client_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchCall struct {
	st    catalog.FilterState
	reply chan fetchReply
}

type fetchReply struct {
	r   client.Result
	err error
}

// fakeFetcher は ctx を無視して、テストが返すまで待つ。
type fakeFetcher struct {
	calls chan *fetchCall
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(chan *fetchCall, 16)}
}

func (f *fakeFetcher) FetchProducts(ctx context.Context, st catalog.FilterState) (client.Result, error) {
	c := &fetchCall{st: st, reply: make(chan fetchReply, 1)}
	f.calls <- c
	rep := <-c.reply
	return rep.r, rep.err
}

func (f *fakeFetcher) next(t *testing.T) *fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch issued")
		return nil
	}
}

func (f *fakeFetcher) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected fetch for %+v", c.st)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeHistory struct {
	mu       sync.Mutex
	location string
	pushes   []string
}

func (h *fakeHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

func (h *fakeHistory) Push(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.location = url
	h.pushes = append(h.pushes, url)
}

func (h *fakeHistory) Pushes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.pushes...)
}

func mountPage(t *testing.T, initialResult *client.Result) (*client.CategoryPage, *fakeFetcher, *fakeHistory) {
	t.Helper()

	f := newFakeFetcher()
	h := &fakeHistory{location: "/categorias/herramientas"}
	p := client.NewCategoryPage(client.CategoryPageConfig{
		Fetcher:            f,
		History:            h,
		Cache:              client.NewResultCache(),
		KnownSubcategories: []string{"taladros", "sierras"},
	})
	p.Mount(catalog.DefaultState("herramientas"), initialResult)
	t.Cleanup(p.Close)
	return p, f, h
}

func TestCategoryPage_MountDoesNotFetch(t *testing.T) {
	initial := result(total(3), 1, 2)
	p, f, h := mountPage(t, &initial)

	f.assertIdle(t)
	assert.Empty(t, h.Pushes())
	assert.Len(t, p.Products().State().Items, 2)
}

func TestCategoryPage_ChangePushesURLAndFetches(t *testing.T) {
	p, f, h := mountPage(t, nil)

	p.Filters().SetSort(catalog.SortPriceAsc)

	c := f.next(t)
	assert.Equal(t, catalog.SortPriceAsc, c.st.Sort)
	assert.Equal(t, []string{"/categorias/herramientas?sort=price_asc"}, h.Pushes())
	assert.True(t, p.Products().State().Loading)

	c.reply <- fetchReply{r: result(total(1), 9)}
	p.Wait()

	st := p.Products().State()
	assert.False(t, st.Loading)
	require.Len(t, st.Items, 1)
	assert.Equal(t, int64(9), st.Items[0].ID)
}

func TestCategoryPage_LatestRequestWins(t *testing.T) {
	p, f, _ := mountPage(t, nil)

	p.Filters().SetSort(catalog.SortNameAsc)
	a := f.next(t)
	p.Filters().SetInStock(true)
	b := f.next(t)

	//B が先に返る
	b.reply <- fetchReply{r: result(total(1), 2)}
	require.Eventually(t, func() bool {
		items := p.Products().State().Items
		return len(items) == 1 && items[0].ID == 2
	}, 2*time.Second, 5*time.Millisecond)

	//A が後から返っても反映しない
	a.reply <- fetchReply{r: result(total(1), 1)}
	p.Wait()

	items := p.Products().State().Items
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestCategoryPage_SeededResultServedFromCache(t *testing.T) {
	initial := result(total(3), 1, 2)
	p, f, h := mountPage(t, &initial)

	p.Filters().SetPage(2)
	c := f.next(t)
	c.reply <- fetchReply{r: result(total(3), 3)}
	p.Wait()

	//初期状態に戻すとネットワークなしでキャッシュから
	p.Filters().SetPage(1)
	f.assertIdle(t)

	items := p.Products().State().Items
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, []string{
		"/categorias/herramientas?page=2",
		"/categorias/herramientas",
	}, h.Pushes())
}

func TestCategoryPage_UnknownTotalIsNotCached(t *testing.T) {
	p, f, _ := mountPage(t, nil)

	p.Filters().SetPage(2)
	f.next(t).reply <- fetchReply{r: result(nil)}
	p.Wait()

	p.Filters().SetPage(1)
	f.next(t).reply <- fetchReply{r: result(total(0))}
	p.Wait()

	//page=2 はキャッシュされていないのでもう一度取得する
	p.Filters().SetPage(2)
	f.next(t).reply <- fetchReply{r: result(total(0))}
	p.Wait()
}

func TestCategoryPage_ErrorKeepsItems(t *testing.T) {
	initial := result(total(3), 1, 2)
	p, f, _ := mountPage(t, &initial)

	p.Filters().SetInStock(true)
	f.next(t).reply <- fetchReply{err: &client.StatusError{Status: 500, Message: "Internal server error"}}
	p.Wait()

	st := p.Products().State()
	var se *client.StatusError
	require.True(t, errors.As(st.Err, &se))
	assert.Equal(t, 500, se.Status)
	assert.False(t, st.Loading)
	assert.Len(t, st.Items, 2)
}

func TestCategoryPage_CancellationIsSwallowed(t *testing.T) {
	p, f, _ := mountPage(t, nil)

	p.Filters().SetInStock(true)
	f.next(t).reply <- fetchReply{err: context.Canceled}
	p.Wait()

	assert.NoError(t, p.Products().State().Err)
}

func TestCategoryPage_PopStateRestoresWithoutPush(t *testing.T) {
	p, f, h := mountPage(t, nil)

	//ブラウザが先に location を変える
	h.mu.Lock()
	h.location = "/categorias/herramientas?subcategoria=taladros&sort=name_asc&page=0"
	h.mu.Unlock()

	p.PopState("?subcategoria=taladros&sort=name_asc&page=0")

	c := f.next(t)
	require.NotNil(t, c.st.SubcategorySlug)
	assert.Equal(t, "taladros", *c.st.SubcategorySlug)
	assert.Equal(t, catalog.SortNameAsc, c.st.Sort)
	assert.Equal(t, 1, c.st.Page)
	assert.Equal(t, "herramientas", c.st.CategorySlug)
	assert.Empty(t, h.Pushes())

	c.reply <- fetchReply{r: result(total(0))}
	p.Wait()
}

func TestCategoryPage_PopStateDropsUnknownSubcategory(t *testing.T) {
	p, f, _ := mountPage(t, nil)

	p.PopState("subcategoria=mangueras&inStock=1")

	c := f.next(t)
	assert.Nil(t, c.st.SubcategorySlug)
	assert.False(t, c.st.InStock)
	c.reply <- fetchReply{r: result(total(0))}
	p.Wait()
}

func TestCategoryPage_ListenerMayChangeFiltersOnResult(t *testing.T) {
	p, f, h := mountPage(t, nil)

	//ページが総ページ数を超えたら最終ページへ寄せる
	var clamped atomic.Bool
	unsubscribe := p.Products().Subscribe(func(st client.ProductsState) {
		if st.TotalPages == nil || *st.TotalPages < 1 || st.Page <= *st.TotalPages {
			return
		}
		if clamped.CompareAndSwap(false, true) {
			p.Filters().SetPage(*st.TotalPages)
		}
	})
	defer unsubscribe()

	p.Filters().SetPage(5)
	f.next(t).reply <- fetchReply{r: client.Result{Page: 5, PageSize: 2, Total: total(3), TotalPages: pages(2)}}

	c := f.next(t)
	assert.Equal(t, 2, c.st.Page)
	last := result(total(3), 3)
	last.Page = 2
	last.TotalPages = pages(2)
	c.reply <- fetchReply{r: last}
	p.Wait()

	st := p.Products().State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, int64(3), st.Items[0].ID)
	assert.Equal(t, []string{
		"/categorias/herramientas?page=5",
		"/categorias/herramientas?page=2",
	}, h.Pushes())
}
