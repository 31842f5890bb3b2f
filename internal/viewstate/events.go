package viewstate

import "github.com/pauljones0/brick-deals/internal/models"

// EventKind identifies one of the event types the controller handles.
type EventKind int

const (
	EventPageChanged EventKind = iota
	EventPageSizeChanged
	EventFilterToggled
	EventSortChanged
	EventFavoriteToggled
	EventFavoritesOnlyToggled
	EventModeChanged
)

var eventKindNames = [...]string{
	EventPageChanged:          "page_changed",
	EventPageSizeChanged:      "page_size_changed",
	EventFilterToggled:        "filter_toggled",
	EventSortChanged:          "sort_changed",
	EventFavoriteToggled:      "favorite_toggled",
	EventFavoritesOnlyToggled: "favorites_only_toggled",
	EventModeChanged:          "mode_changed",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is anything the renderer can send to the controller.
type Event interface {
	Kind() EventKind
}

type PageChanged struct{ Page int }

type PageSizeChanged struct{ Size int }

type FilterToggled struct{ Filter models.Filter }

type SortChanged struct{ Sort models.Sort }

type FavoriteToggled struct{ UUID string }

type FavoritesOnlyToggled struct{}

// ModeChanged selects a Lego set id to browse its sales. An empty SetID
// returns to deals.
type ModeChanged struct{ SetID string }

func (PageChanged) Kind() EventKind          { return EventPageChanged }
func (PageSizeChanged) Kind() EventKind      { return EventPageSizeChanged }
func (FilterToggled) Kind() EventKind        { return EventFilterToggled }
func (SortChanged) Kind() EventKind          { return EventSortChanged }
func (FavoriteToggled) Kind() EventKind      { return EventFavoriteToggled }
func (FavoritesOnlyToggled) Kind() EventKind { return EventFavoritesOnlyToggled }
func (ModeChanged) Kind() EventKind          { return EventModeChanged }
