package client

import (
	"context"

	"go.uber.org/zap"
)

// ShopFetcher はショップ版一覧の取得元。
type ShopFetcher interface {
	FetchShop(ctx context.Context, q ShopQuery) (ShopResult, error)
}

// ShopLister はショップ版一覧をキャッシュ優先で取る。
type ShopLister struct {
	fetcher ShopFetcher
	cache   *ResultCache
	log     *zap.Logger
}

// DI。cache が nil なら毎回取りに行く。
func NewShopLister(fetcher ShopFetcher, cache *ResultCache, log *zap.Logger) *ShopLister {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShopLister{fetcher: fetcher, cache: cache, log: log}
}

// List は結果と、キャッシュから返したかどうかを返す。
func (s *ShopLister) List(ctx context.Context, q ShopQuery) (ShopResult, bool, error) {
	key := q.Key()
	if s.cache != nil {
		if r, ok := s.cache.GetShop(key); ok {
			s.log.Debug("shop cache hit", zap.String("key", key))
			return r, true, nil
		}
	}

	r, err := s.fetcher.FetchShop(ctx, q)
	if err != nil {
		return ShopResult{}, false, err
	}
	if s.cache != nil && !s.cache.PutShop(key, r) {
		s.log.Warn("shop total unknown, not cached", zap.String("key", key))
	}
	return r, false, nil
}
