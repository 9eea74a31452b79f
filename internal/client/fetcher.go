package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain/model"
)

// Fetcher は一覧の取得元。
type Fetcher interface {
	FetchProducts(ctx context.Context, st catalog.FilterState) (Result, error)
}

// StatusError は 2xx 以外の応答。
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// HTTPFetcher は /api/products と /api/shop を叩く。
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFetcher(baseURL string, hc *http.Client) *HTTPFetcher {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

func (f *HTTPFetcher) FetchProducts(ctx context.Context, st catalog.FilterState) (Result, error) {
	var r Result
	if err := f.get(ctx, "/api/products", catalog.EncodeAPI(st), &r); err != nil {
		return Result{}, err
	}
	return r, nil
}

// ShopQuery は /api/shop の条件。
type ShopQuery struct {
	CategoryID    int64
	SubcategoryID *int64
	Page          int
	Filters       map[string]string
}

// Key はキャッシュキー兼クエリ文字列。
func (q ShopQuery) Key() string {
	return ShopKey(q.CategoryID, q.SubcategoryID, q.Page, q.Filters)
}

func (f *HTTPFetcher) FetchShop(ctx context.Context, q ShopQuery) (ShopResult, error) {
	v, err := url.ParseQuery(q.Key())
	if err != nil {
		return ShopResult{}, err
	}
	var r ShopResult
	if err := f.get(ctx, "/api/shop", v, &r); err != nil {
		return ShopResult{}, err
	}
	return r, nil
}

// FetchCategoryTree はサブカテゴリ一覧（URLの subcategoria 検証用）。
func (f *HTTPFetcher) FetchCategoryTree(ctx context.Context, slug string) (model.CategoryTree, error) {
	var tree model.CategoryTree
	if err := f.get(ctx, "/api/categories/"+url.PathEscape(slug), nil, &tree); err != nil {
		return model.CategoryTree{}, err
	}
	return tree, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (f *HTTPFetcher) get(ctx context.Context, path string, q url.Values, dst interface{}) error {
	target := f.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		//キャンセルは context.Canceled のまま返す
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var eb errorBody
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
