package client

import (
	"net/url"
	"sort"
	"strconv"
	"sync"

	"storefront/internal/catalog"
)

// ResultCache はページを開いている間だけのメモ。上限なし・永続化なし。
// カテゴリ一覧とショップ版は別の表に持つ。
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]Result
	shop    map[string]ShopResult
}

func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]Result), shop: make(map[string]ShopResult)}
}

// CacheKey はスコープ・ページ・フィルタの正規形（URLと同じ正規化）。
func CacheKey(st catalog.FilterState) string {
	return catalog.EncodeAPI(st).Encode()
}

// ShopKey はショップ版のキー。フィルタはキー順。/api/shop のクエリ文字列にもそのまま使う。
func ShopKey(categoryID int64, subcategoryID *int64, page int, filters map[string]string) string {
	v := url.Values{}
	v.Set("categoryId", strconv.FormatInt(categoryID, 10))
	if subcategoryID != nil {
		v.Set("subcategoryId", strconv.FormatInt(*subcategoryID, 10))
	}
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if filters[k] != "" {
			v.Set(k, filters[k])
		}
	}
	return v.Encode()
}

func (c *ResultCache) Get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return r.clone(), true
}

// Put は件数不明の結果を保存しない。
func (c *ResultCache) Put(key string, r Result) bool {
	if r.Total == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = r.clone()
	return true
}

// Seed は未登録のときだけ保存する（サーバ描画の初期結果用）。
func (c *ResultCache) Seed(key string, r Result) bool {
	if r.Total == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false
	}
	c.entries[key] = r.clone()
	return true
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries) + len(c.shop)
}

func (c *ResultCache) GetShop(key string) (ShopResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.shop[key]
	if !ok {
		return ShopResult{}, false
	}
	return r.clone(), true
}

// PutShop も件数不明（失敗時の縮退応答）は保存しない。
func (c *ResultCache) PutShop(key string, r ShopResult) bool {
	if r.Total == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shop[key] = r.clone()
	return true
}
