package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"storefront/internal/catalog"
	"storefront/internal/client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var browseCmd = &cobra.Command{
	Use:   "browse <category-slug> [query]",
	Short: "Print one page of a category listing",
	Long: `Mount the category page, restore the optional URL query (as after a back/forward
navigation), then apply the filter flags one by one. Every change is pushed to the
history and fetched; only the response of the last request is shown.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBrowse,
}

func init() {
	f := browseCmd.Flags()
	f.String("subcategory", "", "subcategory slug")
	f.Int("page", 0, "page number")
	f.Int("page-size", 0, "page size (1..50)")
	f.String("sort", "", "price_asc, price_desc, name_asc, name_desc or newest")
	f.Float64("min-price", -1, "minimum price")
	f.Float64("max-price", -1, "maximum price")
	f.Bool("in-stock", false, "only products with stock")
	f.StringArray("attr", nil, "attribute filter key=value (repeat the key for a list)")
}

// printHistory は push された URL を表示する。
type printHistory struct {
	mu       sync.Mutex
	out      io.Writer
	location string
}

func (h *printHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

func (h *printHistory) Push(u string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.location = u
	fmt.Fprintf(h.out, "→ %s\n", u)
}

func newLogger() *zap.Logger {
	if !v.GetBool("verbose") {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	slug := args[0]

	fetcher := client.NewHTTPFetcher(v.GetString("server"), nil)
	tree, err := fetcher.FetchCategoryTree(ctx, slug)
	if err != nil {
		return err
	}

	//pageSize はURLに載らないので最初に決める
	initial := catalog.DefaultState(slug)
	if n, _ := cmd.Flags().GetInt("page-size"); n > 0 {
		initial.PageSize = catalog.ClampPageSize(n)
	}
	hist := &printHistory{out: out, location: catalog.BrowserPath(initial)}
	page := client.NewCategoryPage(client.CategoryPageConfig{
		Fetcher:            fetcher,
		History:            hist,
		Cache:              client.NewResultCache(),
		KnownSubcategories: tree.SubcategorySlugs(),
		Log:                newLogger(),
	})
	defer page.Close()

	page.Mount(initial, nil)

	//URLのクエリ（無ければ初期状態）を復元して取得
	var q string
	if len(args) == 2 {
		q = args[1]
		if i := strings.IndexByte(q, '?'); i >= 0 {
			q = q[i+1:]
		}
	}
	page.PopState(q)

	if err := applyFlags(cmd, page.Filters()); err != nil {
		return err
	}
	page.Wait()

	st := page.Products().State()
	if st.Err != nil {
		return st.Err
	}
	printResult(out, tree.Category.Name, st.Result)
	return nil
}

func applyFlags(cmd *cobra.Command, store *catalog.Store) error {
	f := cmd.Flags()

	if f.Changed("subcategory") {
		s, _ := f.GetString("subcategory")
		store.SetSubcategory(&s)
	}
	if f.Changed("sort") {
		raw, _ := f.GetString("sort")
		s, ok := catalog.ParseSort(raw)
		if !ok {
			return fmt.Errorf("invalid sort %q", raw)
		}
		store.SetSort(s)
	}
	if f.Changed("min-price") || f.Changed("max-price") {
		store.SetPriceRange(priceFlag(cmd, "min-price"), priceFlag(cmd, "max-price"))
	}
	if f.Changed("in-stock") {
		b, _ := f.GetBool("in-stock")
		store.SetInStock(b)
	}
	if f.Changed("attr") {
		raw, _ := f.GetStringArray("attr")
		values := url.Values{}
		for _, kv := range raw {
			k, val, ok := strings.Cut(kv, "=")
			if !ok || !catalog.ValidAttributeKey(k) {
				return fmt.Errorf("invalid attribute filter %q", kv)
			}
			values.Add(k, val)
		}
		attrs := catalog.ParseParams(values).Attributes
		for _, k := range attrs.Keys() {
			store.SetAttributeFilter(k, attrs[k])
		}
	}
	//ページは最後（他の変更で1に戻るため）
	if f.Changed("page") {
		n, _ := f.GetInt("page")
		store.SetPage(n)
	}
	return nil
}

func priceFlag(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	p, _ := cmd.Flags().GetFloat64(name)
	return catalog.SanitizePrice(&p)
}

func printResult(out io.Writer, category string, r client.Result) {
	total, totalPages := "?", "?"
	if r.Total != nil {
		total = fmt.Sprint(*r.Total)
	}
	if r.TotalPages != nil {
		totalPages = fmt.Sprint(*r.TotalPages)
	}
	fmt.Fprintf(out, "%s: page %d/%s (%s products)\n", category, r.Page, totalPages, total)
	for _, it := range r.Items {
		price := "-"
		if it.Price != nil {
			price = catalog.FormatPrice(*it.Price)
		}
		fmt.Fprintf(out, "  #%-4d %-40s %10s  stock %d\n", it.ID, it.Name, price, it.Stock)
	}
}
