package viewstate

import (
	"cmp"
	"slices"

	"github.com/pauljones0/brick-deals/internal/models"
)

// Criteria is the user's current filter and sort selection.
type Criteria struct {
	Filter        models.Filter
	Sort          models.Sort
	FavoritesOnly bool
}

// Project derives the ordered sequence to display. Stages always run in the
// same order (filter, favorites-only, stable sort) and the input slice is
// never modified.
func Project(records []models.Record, c Criteria, favorites Membership) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !c.Filter.Match(r) {
			continue
		}
		if c.FavoritesOnly && !isFavorite(favorites, r.UUID) {
			continue
		}
		out = append(out, r)
	}

	if compare := comparator(c.Sort, favorites); compare != nil {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func comparator(s models.Sort, favorites Membership) func(a, b models.Record) int {
	switch s {
	case models.SortPriceAsc:
		return func(a, b models.Record) int {
			return cmp.Compare(a.Price.Value(), b.Price.Value())
		}
	case models.SortPriceDesc:
		return func(a, b models.Record) int {
			return cmp.Compare(b.Price.Value(), a.Price.Value())
		}
	case models.SortDateAsc:
		// The zero time stands for an unknown date and is earlier than any parsed date.
		return func(a, b models.Record) int {
			return a.Published.Compare(b.Published)
		}
	case models.SortDateDesc:
		return func(a, b models.Record) int {
			return b.Published.Compare(a.Published)
		}
	case models.SortFavoritesFirst:
		return func(a, b models.Record) int {
			return cmp.Compare(favoriteRank(favorites, b.UUID), favoriteRank(favorites, a.UUID))
		}
	default:
		return nil
	}
}

func isFavorite(favorites Membership, uuid string) bool {
	return favorites != nil && favorites.Has(uuid)
}

func favoriteRank(favorites Membership, uuid string) int {
	if isFavorite(favorites, uuid) {
		return 1
	}
	return 0
}
