package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"storefront/internal/catalog"

	"go.uber.org/zap"
)

// History はブラウザの履歴。
type History interface {
	Location() string
	Push(url string)
}

type CategoryPageConfig struct {
	Fetcher Fetcher
	History History
	// nil ならキャッシュしない
	Cache *ResultCache
	// URLの subcategoria 検証用
	KnownSubcategories []string
	Log                *zap.Logger
}

// CategoryPage はフィルタ → URL → 取得 → 一覧 をつなぐ。
type CategoryPage struct {
	filters  *catalog.Store
	products *ProductsStore
	seq      *Sequencer
	cache    *ResultCache
	fetcher  Fetcher
	history  History
	known    []string
	log      *zap.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	restoring   atomic.Bool
	wg          sync.WaitGroup
}

func NewCategoryPage(cfg CategoryPageConfig) *CategoryPage {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CategoryPage{
		filters:  catalog.NewStore(catalog.DefaultState("")),
		products: NewProductsStore(),
		seq:      NewSequencer(),
		cache:    cfg.Cache,
		fetcher:  cfg.Fetcher,
		history:  cfg.History,
		known:    append([]string(nil), cfg.KnownSubcategories...),
		log:      cfg.Log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (p *CategoryPage) Filters() *catalog.Store { return p.filters }

func (p *CategoryPage) Products() *ProductsStore { return p.products }

// Mount は初期状態と初期結果を入れる。ここでは取得しない。
func (p *CategoryPage) Mount(initial catalog.FilterState, initialResult *Result) {
	p.filters.Init(initial)
	if initialResult != nil {
		p.products.SetResult(*initialResult)
		if p.cache != nil {
			p.cache.Seed(CacheKey(p.filters.State()), *initialResult)
		}
	}
	p.unsubscribe = p.filters.Subscribe(p.onFilterChange)
}

// PopState は戻る/進むでURLが変わったとき。履歴には積まない。
func (p *CategoryPage) PopState(rawQuery string) {
	st := catalog.Sanitize(rawQuery, p.known, p.filters.State())

	p.restoring.Store(true)
	p.filters.Init(st)
	p.restoring.Store(false)

	p.fetch(p.filters.State())
}

func (p *CategoryPage) onFilterChange(st catalog.FilterState) {
	if p.restoring.Load() {
		return
	}
	next := catalog.BrowserPath(st)
	if p.history != nil {
		if next == p.history.Location() {
			return
		}
		p.history.Push(next)
	}
	p.fetch(st)
}

// fetch はキャッシュがあればそれを使い、無ければ非同期に取得する。
func (p *CategoryPage) fetch(st catalog.FilterState) {
	key := CacheKey(st)
	ticket := p.seq.Begin(p.ctx)
	//Sequencer のロックを持ったまま購読者を呼ばないよう、番号の確認はストア側で行う
	current := func() bool { return p.seq.IsCurrent(ticket.Seq) }

	if p.cache != nil {
		if r, ok := p.cache.Get(key); ok {
			p.products.SetResultIf(current, r)
			return
		}
	}

	p.products.SetLoading()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		r, err := p.fetcher.FetchProducts(ticket.Ctx, st)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.log.Warn("fetch products", zap.String("key", key), zap.Error(err))
			p.products.SetErrorIf(current, err)
			return
		}

		if p.cache != nil {
			p.cache.Put(key, r)
		}
		p.products.SetResultIf(current, r)
	}()
}

// Wait は実行中の取得が終わるまで待つ。
func (p *CategoryPage) Wait() {
	p.wg.Wait()
}

// Close は購読を外し、実行中の取得をキャンセルする。
func (p *CategoryPage) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.seq.Close()
	p.cancel()
	p.wg.Wait()
}
