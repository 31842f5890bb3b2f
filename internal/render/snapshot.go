package render

import (
	"fmt"
	"sync"

	"github.com/pauljones0/brick-deals/internal/models"
	"github.com/pauljones0/brick-deals/internal/viewstate"
)

const (
	heatCold    = "cold"
	heatWarm    = "warm"
	heatHot     = "hot"
	heatVeryHot = "very-hot"

	heatThresholdWarm    = 50
	heatThresholdHot     = models.HotDealsThreshold
	heatThresholdVeryHot = 300

	dateLayout  = "2006-01-02"
	invalidDate = "Invalid Date"
)

// Card is one record as shown in the list.
type Card struct {
	UUID        string `json:"uuid"`
	SetID       string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Image       string `json:"image,omitempty"`
	Price       string `json:"price"`
	Discount    string `json:"discount"`
	Temperature string `json:"temperature"`
	Comments    string `json:"comments"`
	Date        string `json:"date"`
	Favorite    bool   `json:"favorite"`
	Star        string `json:"star"`
	Heat        string `json:"heat"`
}

// View is the serializable state of the whole page.
type View struct {
	Mode          string            `json:"mode"`
	SetID         string            `json:"setId,omitempty"`
	PageSize      int               `json:"pageSize"`
	Filter        string            `json:"filter"`
	Sort          string            `json:"sort"`
	FavoritesOnly bool              `json:"favoritesOnly"`
	Pagination    models.Pagination `json:"pagination"`
	Count         int               `json:"count"`
	SetIDs        []string          `json:"setIds"`
	Cards         []Card            `json:"cards"`
}

// Snapshot keeps the latest projection as a View. It is safe for concurrent
// use: the controller writes while HTTP handlers read.
type Snapshot struct {
	mu    sync.RWMutex
	view  View
	ready bool
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

func (s *Snapshot) OnProjectionReady(p viewstate.Projection) {
	v := BuildView(p)
	s.mu.Lock()
	s.view = v
	s.ready = true
	s.mu.Unlock()
}

// View returns the latest view and whether any projection has arrived yet.
func (s *Snapshot) View() (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view, s.ready
}

func BuildView(p viewstate.Projection) View {
	cards := make([]Card, 0, len(p.Records))
	for _, r := range p.Records {
		cards = append(cards, NewCard(r, p.Favorites[r.UUID]))
	}
	setIDs := p.SetIDs
	if setIDs == nil {
		setIDs = []string{}
	}
	return View{
		Mode:          string(p.State.Mode),
		SetID:         p.State.SetID,
		PageSize:      p.State.PageSize,
		Filter:        p.State.Filter.String(),
		Sort:          p.State.Sort.String(),
		FavoritesOnly: p.State.FavoritesOnly,
		Pagination:    p.Pagination,
		Count:         p.Pagination.Count,
		SetIDs:        setIDs,
		Cards:         cards,
	}
}

func NewCard(r models.Record, favorite bool) Card {
	star := "☆"
	if favorite {
		star = "★"
	}
	date := invalidDate
	if r.HasKnownDate() {
		date = r.Published.Format(dateLayout)
	}
	return Card{
		UUID:        r.UUID,
		SetID:       r.ID,
		Title:       r.Title,
		Link:        r.Link,
		Image:       r.Image,
		Price:       fmt.Sprintf("%s €", r.Price),
		Discount:    fmt.Sprintf("%d%% off", valueOrZero(r.Discount)),
		Temperature: fmt.Sprintf("%d°", valueOrZero(r.Temperature)),
		Comments:    fmt.Sprintf("%d", valueOrZero(r.Comments)),
		Date:        date,
		Favorite:    favorite,
		Star:        star,
		Heat:        heatClass(r.Temperature),
	}
}

func heatClass(temperature *int) string {
	t := valueOrZero(temperature)
	switch {
	case t >= heatThresholdVeryHot:
		return heatVeryHot
	case t >= heatThresholdHot:
		return heatHot
	case t >= heatThresholdWarm:
		return heatWarm
	default:
		return heatCold
	}
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
