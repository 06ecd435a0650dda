package service

import (
	"testing"

	"github.com/relicvault/storefront/internal/shopapi"
)

func TestNormalizeProductQuery(t *testing.T) {
	cases := []struct {
		name string
		in   shopapi.ProductQuery
		want shopapi.ProductQuery
	}{
		{
			name: "defaults",
			in:   shopapi.ProductQuery{},
			want: shopapi.ProductQuery{Page: 1, Limit: defaultCatalogPageSize},
		},
		{
			name: "cap limit and trim",
			in:   shopapi.ProductQuery{Page: 3, Limit: 500, Keyword: "  jersey ", Category: " cards "},
			want: shopapi.ProductQuery{Page: 3, Limit: maxCatalogPageSize, Keyword: "jersey", Category: "cards"},
		},
		{
			name: "swap inverted price range",
			in:   shopapi.ProductQuery{Page: 1, Limit: 10, PriceMin: "90", PriceMax: "10.5"},
			want: shopapi.ProductQuery{Page: 1, Limit: 10, PriceMin: "10.5", PriceMax: "90"},
		},
		{
			name: "drop invalid bounds",
			in:   shopapi.ProductQuery{Page: 1, Limit: 10, PriceMin: "-4", PriceMax: "abc"},
			want: shopapi.ProductQuery{Page: 1, Limit: 10},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeProductQuery(tc.in)
			if got != tc.want {
				t.Fatalf("want %+v got %+v", tc.want, got)
			}
		})
	}
}
