package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pauljones0/brick-deals/internal/models"
	"github.com/pauljones0/brick-deals/internal/validator"
)

const (
	defaultPageSize    = 6
	defaultMaxPageSize = 100
)

// ViewState is the user-controlled part of the view. Records and pagination
// live in the Store.
type ViewState struct {
	Mode          models.Kind
	SetID         string
	Page          int
	PageSize      int
	Filter        models.Filter
	Sort          models.Sort
	FavoritesOnly bool
}

// Projection is what the renderer receives after every pipeline run.
type Projection struct {
	State      ViewState
	Records    []models.Record
	Favorites  map[string]bool // favorite markers for Records, keyed by uuid
	Pagination models.Pagination
	SetIDs     []string // distinct set ids of the latest deal batch
}

type Options struct {
	PageSize    int
	MaxPageSize int
	Logger      *slog.Logger
	Validator   *validator.Validator
}

type handlerFunc func(ctx context.Context, ev Event) error

type acquisitionResult struct {
	id    uint64
	req   models.BatchRequest
	batch models.RawBatch
	err   error
}

// Controller serializes events through a single loop. Acquisitions run in
// their own goroutines and report back to the loop; only the result of the
// most recently issued request is applied.
type Controller struct {
	fetcher     Fetcher
	renderer    Renderer
	logger      *slog.Logger
	store       *Store
	favorites   *Favorites
	state       ViewState
	setIDs      []string
	maxPageSize int

	handlers      map[EventKind]handlerFunc
	events        chan Event
	results       chan acquisitionResult
	done          chan struct{}
	latestRequest uint64
}

func New(f Fetcher, r Renderer, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = defaultMaxPageSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Controller{
		fetcher:     f,
		renderer:    r,
		logger:      opts.Logger,
		store:       NewStore(opts.Validator),
		favorites:   NewFavorites(),
		maxPageSize: opts.MaxPageSize,
		state: ViewState{
			Mode:     models.KindDeal,
			Page:     1,
			PageSize: opts.PageSize,
		},
		events:  make(chan Event, 64),
		results: make(chan acquisitionResult, 16),
		done:    make(chan struct{}),
	}
	c.handlers = map[EventKind]handlerFunc{
		EventPageChanged:          c.onPageChanged,
		EventPageSizeChanged:      c.onPageSizeChanged,
		EventFilterToggled:        c.onFilterToggled,
		EventSortChanged:          c.onSortChanged,
		EventFavoriteToggled:      c.onFavoriteToggled,
		EventFavoritesOnlyToggled: c.onFavoritesOnlyToggled,
		EventModeChanged:          c.onModeChanged,
	}
	return c
}

// Dispatch queues an event for the loop.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run bootstraps the view with the first page of deals and then processes
// events and acquisition results until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	c.handle(ctx, PageChanged{Page: 1})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			c.handle(ctx, ev)
		case res := <-c.results:
			c.apply(res)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev Event) {
	h, ok := c.handlers[ev.Kind()]
	if !ok {
		c.logger.Warn("No handler registered for event", "event", ev.Kind())
		return
	}
	if err := h(ctx, ev); err != nil {
		c.logger.Warn("Ignoring event", "event", ev.Kind(), "error", err)
	}
}

func (c *Controller) onPageChanged(ctx context.Context, ev Event) error {
	page := ev.(PageChanged).Page
	if page < 1 {
		return fmt.Errorf("%w: page %d", ErrInvalidEventPayload, page)
	}
	c.state.Page = page
	c.acquire(ctx)
	return nil
}

func (c *Controller) onPageSizeChanged(ctx context.Context, ev Event) error {
	size := ev.(PageSizeChanged).Size
	if size < 1 || size > c.maxPageSize {
		return fmt.Errorf("%w: page size %d outside 1..%d", ErrInvalidEventPayload, size, c.maxPageSize)
	}
	// The current page is kept so the user stays where they were.
	c.state.PageSize = size
	c.acquire(ctx)
	return nil
}

func (c *Controller) onModeChanged(ctx context.Context, ev Event) error {
	setID := strings.TrimSpace(ev.(ModeChanged).SetID)
	mode := models.KindDeal
	if setID != "" {
		mode = models.KindSale
	}
	// The held batch belongs to the previous mode and must not be projected under the new one.
	if mode != c.state.Mode || setID != c.state.SetID {
		c.store.Reset()
	}
	c.state.Mode = mode
	c.state.SetID = setID
	c.state.Page = 1
	c.acquire(ctx)
	return nil
}

func (c *Controller) onFilterToggled(_ context.Context, ev Event) error {
	f := ev.(FilterToggled).Filter
	if f < models.FilterNone || f > models.FilterHotDeals {
		return fmt.Errorf("%w: %s", ErrInvalidEventPayload, f)
	}
	if c.state.Filter == f {
		c.state.Filter = models.FilterNone
	} else {
		c.state.Filter = f
	}
	c.project()
	return nil
}

func (c *Controller) onSortChanged(_ context.Context, ev Event) error {
	s := ev.(SortChanged).Sort
	if s < models.SortNone || s > models.SortFavoritesFirst {
		return fmt.Errorf("%w: %s", ErrInvalidEventPayload, s)
	}
	c.state.Sort = s
	c.project()
	return nil
}

func (c *Controller) onFavoriteToggled(_ context.Context, ev Event) error {
	uuid := strings.TrimSpace(ev.(FavoriteToggled).UUID)
	if uuid == "" {
		return fmt.Errorf("%w: empty uuid", ErrInvalidEventPayload)
	}
	favorite := c.favorites.Toggle(uuid)
	c.logger.Debug("Favorite toggled", "uuid", uuid, "favorite", favorite, "total", c.favorites.Len())
	// Always re-project so the renderer receives the new marker.
	c.project()
	return nil
}

func (c *Controller) onFavoritesOnlyToggled(_ context.Context, _ Event) error {
	c.state.FavoritesOnly = !c.state.FavoritesOnly
	c.project()
	return nil
}

// acquire issues a new request id and fetches in the background. Earlier
// requests are not cancelled; their results are discarded on arrival.
func (c *Controller) acquire(ctx context.Context) {
	c.latestRequest++
	id := c.latestRequest
	req := models.BatchRequest{
		Kind:  c.state.Mode,
		SetID: c.state.SetID,
		Page:  c.state.Page,
		Size:  c.state.PageSize,
	}
	c.logger.Debug("Starting acquisition", "request_id", id, "kind", req.Kind, "set_id", req.SetID, "page", req.Page, "size", req.Size)

	go func() {
		batch, err := c.fetcher.Fetch(ctx, req)
		select {
		case c.results <- acquisitionResult{id: id, req: req, batch: batch, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) apply(res acquisitionResult) {
	if res.id != c.latestRequest {
		c.logger.Debug("Dropping stale acquisition result", "request_id", res.id, "latest", c.latestRequest)
		return
	}

	if res.err != nil {
		c.logger.Error("Acquisition failed, showing empty view", "error", fmt.Errorf("%w: %w", ErrAcquisitionFailure, res.err), "kind", res.req.Kind, "page", res.req.Page)
		c.store.Reset()
	} else if err := c.store.SetBatch(res.req.Kind, res.batch); err != nil {
		c.logger.Error("Rejected batch, showing empty view", "error", err, "kind", res.req.Kind, "page", res.req.Page)
	}

	c.state.Page = c.store.Pagination().CurrentPage
	if res.req.Kind == models.KindDeal {
		c.setIDs = distinctSetIDs(c.store.Records())
	}
	c.project()
}

func (c *Controller) project() {
	if c.renderer == nil {
		return
	}
	records := Project(c.store.Records(), Criteria{
		Filter:        c.state.Filter,
		Sort:          c.state.Sort,
		FavoritesOnly: c.state.FavoritesOnly,
	}, c.favorites)

	markers := make(map[string]bool, len(records))
	for _, r := range records {
		markers[r.UUID] = c.favorites.Has(r.UUID)
	}

	c.renderer.OnProjectionReady(Projection{
		State:      c.state,
		Records:    records,
		Favorites:  markers,
		Pagination: c.store.Pagination(),
		SetIDs:     append([]string(nil), c.setIDs...),
	})
}

func distinctSetIDs(records []models.Record) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		ids = append(ids, r.ID)
	}
	return ids
}
