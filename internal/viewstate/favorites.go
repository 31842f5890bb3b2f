package viewstate

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Favorites is the session's set of favorited record uuids. It outlives any
// single batch and is only written by the controller loop.
type Favorites struct {
	set mapset.Set[string]
}

func NewFavorites() *Favorites {
	return &Favorites{set: mapset.NewThreadUnsafeSet[string]()}
}

// Toggle flips membership of uuid and returns the new membership.
func (f *Favorites) Toggle(uuid string) bool {
	if f.set.Contains(uuid) {
		f.set.Remove(uuid)
		return false
	}
	f.set.Add(uuid)
	return true
}

func (f *Favorites) Has(uuid string) bool {
	return f.set.Contains(uuid)
}

func (f *Favorites) Len() int {
	return f.set.Cardinality()
}

// Members returns the favorited uuids in sorted order.
func (f *Favorites) Members() []string {
	members := f.set.ToSlice()
	slices.Sort(members)
	return members
}
