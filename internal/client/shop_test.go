package client_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/client"
	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShopFetcher struct {
	calls   int
	results map[string]client.ShopResult
	err     error
}

func (f *fakeShopFetcher) FetchShop(ctx context.Context, q client.ShopQuery) (client.ShopResult, error) {
	f.calls++
	if f.err != nil {
		return client.ShopResult{}, f.err
	}
	return f.results[q.Key()], nil
}

func shopQuery(page int) client.ShopQuery {
	return client.ShopQuery{CategoryID: 1, Page: page, Filters: map[string]string{"color": "rojo"}}
}

func TestShopLister_SecondRequestServedFromCache(t *testing.T) {
	f := &fakeShopFetcher{results: map[string]client.ShopResult{
		shopQuery(1).Key(): {Products: []model.Product{{ID: 7}}, Total: total(1)},
	}}
	l := client.NewShopLister(f, client.NewResultCache(), nil)

	r, hit, err := l.List(context.Background(), shopQuery(1))
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, r.Products, 1)

	//page 0 は 1 と同じキー
	r, hit, err = l.List(context.Background(), shopQuery(0))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(7), r.Products[0].ID)
	assert.Equal(t, 1, f.calls)
}

func TestShopLister_UnknownTotalIsNotCached(t *testing.T) {
	f := &fakeShopFetcher{results: map[string]client.ShopResult{
		shopQuery(1).Key(): {Products: []model.Product{}, Total: nil},
	}}
	c := client.NewResultCache()
	l := client.NewShopLister(f, c, nil)

	for i := 0; i < 2; i++ {
		_, hit, err := l.List(context.Background(), shopQuery(1))
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, 0, c.Len())
}

func TestShopLister_ErrorIsReturned(t *testing.T) {
	f := &fakeShopFetcher{err: &client.StatusError{Status: 502, Message: "bad gateway"}}
	l := client.NewShopLister(f, client.NewResultCache(), nil)

	_, _, err := l.List(context.Background(), shopQuery(1))
	var se *client.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 502, se.Status)
}

func TestResultCache_ShopEntriesAreCopies(t *testing.T) {
	c := client.NewResultCache()
	require.True(t, c.PutShop("k", client.ShopResult{Products: []model.Product{{ID: 1, Name: "a"}}, Total: total(1)}))

	got, ok := c.GetShop("k")
	require.True(t, ok)
	got.Products[0].Name = "changed"
	*got.Total = 99

	again, _ := c.GetShop("k")
	assert.Equal(t, "a", again.Products[0].Name)
	assert.Equal(t, int64(1), *again.Total)
}
