package main

import (
	"fmt"
	"strings"

	"storefront/internal/client"

	"github.com/spf13/cobra"
)

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Query the shop listing (fixed page size, containment filters)",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		categoryID, _ := f.GetInt64("category-id")
		pages, _ := f.GetIntSlice("page")
		raw, _ := f.GetStringArray("filter")

		q := client.ShopQuery{CategoryID: categoryID, Filters: map[string]string{}}
		if f.Changed("subcategory-id") {
			sub, _ := f.GetInt64("subcategory-id")
			q.SubcategoryID = &sub
		}
		for _, kv := range raw {
			k, val, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return fmt.Errorf("invalid filter %q", kv)
			}
			q.Filters[k] = val
		}

		lister := client.NewShopLister(client.NewHTTPFetcher(v.GetString("server"), nil), client.NewResultCache(), newLogger())
		out := cmd.OutOrStdout()

		//同じページを何度指定してもサーバへは1回だけ
		for _, page := range pages {
			q.Page = page
			r, cached, err := lister.List(cmd.Context(), q)
			if err != nil {
				return err
			}

			from := ""
			if cached {
				from = " (cached)"
			}
			if r.Total == nil {
				fmt.Fprintf(out, "page %d: total unknown%s\n", page, from)
			} else {
				fmt.Fprintf(out, "page %d: %d products%s\n", page, *r.Total, from)
			}
			for _, p := range r.Products {
				fmt.Fprintf(out, "  #%-4d %s\n", p.ID, p.Name)
			}
		}
		return nil
	},
}

func init() {
	f := shopCmd.Flags()
	f.Int64("category-id", 0, "category id")
	f.Int64("subcategory-id", 0, "subcategory id")
	f.IntSlice("page", []int{1}, "page number (repeatable)")
	f.StringArray("filter", nil, "attribute filter key=value")
	_ = shopCmd.MarkFlagRequired("category-id")
}
