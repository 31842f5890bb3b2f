package models

import "fmt"

// Filter is the single active category filter. At most one is active.
type Filter int

const (
	FilterNone Filter = iota
	FilterBestDiscount
	FilterMostCommented
	FilterHotDeals
)

const (
	BestDiscountThreshold  = 50
	MostCommentedThreshold = 15
	HotDealsThreshold      = 100
)

var filterNames = map[Filter]string{
	FilterNone:          "",
	FilterBestDiscount:  "best-discount",
	FilterMostCommented: "most-commented",
	FilterHotDeals:      "hot-deals",
}

func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("filter(%d)", int(f))
}

// Match reports whether the record passes the filter. Missing values never match.
func (f Filter) Match(r Record) bool {
	switch f {
	case FilterNone:
		return true
	case FilterBestDiscount:
		return r.Discount != nil && *r.Discount >= BestDiscountThreshold
	case FilterMostCommented:
		return r.Comments != nil && *r.Comments >= MostCommentedThreshold
	case FilterHotDeals:
		return r.Temperature != nil && *r.Temperature >= HotDealsThreshold
	default:
		return false
	}
}

func ParseFilter(s string) (Filter, error) {
	for f, name := range filterNames {
		if name == s {
			return f, nil
		}
	}
	return FilterNone, fmt.Errorf("unknown filter %q", s)
}

// Sort is the ordering applied last in the projection.
type Sort int

const (
	SortNone Sort = iota
	SortPriceAsc
	SortPriceDesc
	SortDateAsc
	SortDateDesc
	SortFavoritesFirst
)

var sortNames = map[Sort]string{
	SortNone:           "",
	SortPriceAsc:       "price-asc",
	SortPriceDesc:      "price-desc",
	SortDateAsc:        "date-asc",
	SortDateDesc:       "date-desc",
	SortFavoritesFirst: "favorites",
}

func (s Sort) String() string {
	if name, ok := sortNames[s]; ok {
		return name
	}
	return fmt.Sprintf("sort(%d)", int(s))
}

func ParseSort(s string) (Sort, error) {
	for v, name := range sortNames {
		if name == s {
			return v, nil
		}
	}
	return SortNone, fmt.Errorf("unknown sort %q", s)
}
