package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"catalog-api/internal/models"
)

var (
	ErrInvalidPage     = errors.New("page must be a positive integer")
	ErrInvalidPageSize = errors.New("page size is not allowed")
	ErrInvalidSort     = errors.New("invalid sort key")
	ErrClosed          = errors.New("collection closed")
)

var DefaultPageSizes = []int{10, 20, 50}

// ArticleFetcher loads one page of the remote collection.
type ArticleFetcher interface {
	FetchArticles(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error)
}

// State is a snapshot of a Paginated controller, safe to hand to renderers.
type State struct {
	Query   models.ArticleQuery `json:"query"`
	Items   []models.Article    `json:"items"`
	Total   int                 `json:"total"`
	Loaded  bool                `json:"loaded"`
	Loading bool                `json:"loading"`
	Err     error               `json:"-"`

	// Version increases with every change; listeners drop snapshots older than one already seen.
	Version uint64 `json:"version"`
}

func (s State) Meta() Meta {
	return NewMeta(s.Query.Page, s.Query.PageSize, s.Total)
}

type PaginatedOptions struct {
	PageSizes []int
	PageSize  int
	Sort      models.SortKey
	Logger    *slog.Logger
}

// Paginated keeps a page of remote articles consistent with the current
// (page, page size, sort) tuple. Every tuple change issues one fetch; only
// the response to the most recently issued fetch is applied.
type Paginated struct {
	fetcher ArticleFetcher
	sizes   []int
	logger  *slog.Logger

	mu        sync.Mutex
	query     models.ArticleQuery
	items     []models.Article
	total     int
	loaded    bool
	loading   bool
	err       error
	closed    bool
	seq       uint64
	version   uint64
	cancel    context.CancelFunc
	settled   chan struct{}
	listeners map[int]func(State)
	nextID    int
}

func NewPaginated(fetcher ArticleFetcher, opts PaginatedOptions) *Paginated {
	sizes := opts.PageSizes
	if len(sizes) == 0 {
		sizes = DefaultPageSizes
	}
	sizes = slices.Clone(sizes)

	size := opts.PageSize
	if !slices.Contains(sizes, size) {
		size = sizes[0]
	}

	sort := opts.Sort
	if !sort.Valid() {
		sort = models.SortDescending
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settled := make(chan struct{})
	close(settled)

	return &Paginated{
		fetcher:   fetcher,
		sizes:     sizes,
		logger:    logger,
		query:     models.ArticleQuery{Page: 1, PageSize: size, Sort: sort},
		settled:   settled,
		listeners: make(map[int]func(State)),
	}
}

func (p *Paginated) PageSizes() []int {
	return slices.Clone(p.sizes)
}

// Start issues the initial fetch for the current tuple. It does nothing once
// any fetch has been issued, so a setter called first counts as the start.
func (p *Paginated) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq > 0 {
		return
	}
	p.issueLocked()
}

// Refresh re-issues the current tuple, e.g. after a failed fetch.
func (p *Paginated) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issueLocked()
}

func (p *Paginated) SetPage(n int) error {
	return p.update(func(q *models.ArticleQuery) { q.Page = n })
}

// SetPageSize keeps the current page unless the new page count makes it invalid.
func (p *Paginated) SetPageSize(n int) error {
	return p.update(func(q *models.ArticleQuery) { q.PageSize = n })
}

func (p *Paginated) SetSortKey(k models.SortKey) error {
	return p.update(func(q *models.ArticleQuery) { q.Sort = k })
}

// SetQuery applies a full tuple at once and issues at most one fetch.
func (p *Paginated) SetQuery(next models.ArticleQuery) error {
	return p.update(func(q *models.ArticleQuery) { *q = next })
}

// update applies fn to a copy of the current tuple, validates it and issues a
// fetch when it differs. Pages beyond the last known page are clamped to it.
func (p *Paginated) update(fn func(q *models.ArticleQuery)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	q := p.query
	fn(&q)

	if err := p.validate(q); err != nil {
		return err
	}
	if p.loaded {
		q.Page = ClampPage(q.Page, p.total, q.PageSize)
	}
	if q == p.query {
		return nil
	}

	p.query = q
	p.issueLocked()
	return nil
}

func (p *Paginated) validate(q models.ArticleQuery) error {
	if q.Page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, q.Page)
	}
	if !slices.Contains(p.sizes, q.PageSize) {
		return fmt.Errorf("%w: %d (allowed %v)", ErrInvalidPageSize, q.PageSize, p.sizes)
	}
	if !q.Sort.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSort, q.Sort)
	}
	return nil
}

func (p *Paginated) Query() models.ArticleQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

func (p *Paginated) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

// Wait blocks until the most recently issued fetch has settled.
func (p *Paginated) Wait(ctx context.Context) (State, error) {
	for {
		p.mu.Lock()
		settled := p.settled
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return p.State(), ctx.Err()
		case <-settled:
		}

		p.mu.Lock()
		if p.settled == settled {
			s := p.stateLocked()
			p.mu.Unlock()
			return s, nil
		}
		p.mu.Unlock()
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the listener.
func (p *Paginated) Subscribe(fn func(State)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Close cancels any in-flight fetch and drops all listeners.
func (p *Paginated) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.seq++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.loading = false
	clear(p.listeners)
}

func (p *Paginated) issueLocked() {
	if p.closed {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}

	p.seq++
	seq := p.seq
	q := p.query

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.loading = true
	settled := make(chan struct{})
	p.settled = settled

	p.logger.Debug("fetching articles", slog.Uint64("seq", seq), slog.String("query", q.String()))
	p.notifyLocked()

	go func() {
		defer close(settled)
		defer cancel()

		page, err := p.fetcher.FetchArticles(ctx, q)
		p.complete(seq, q, page, err)
	}()
}

func (p *Paginated) complete(seq uint64, q models.ArticleQuery, page *models.ArticlePage, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		p.logger.Debug("dropping superseded response",
			slog.Uint64("seq", seq),
			slog.Uint64("latest", p.seq),
			slog.String("query", q.String()),
		)
		return
	}

	p.loading = false
	p.cancel = nil

	if err == nil && page == nil {
		err = errors.New("empty page response")
	}
	if err != nil {
		p.err = err
		p.logger.Error("fetch articles failed",
			slog.String("query", q.String()),
			slog.Any("err", err),
		)
		p.notifyLocked()
		return
	}

	p.items = slices.Clone(page.Articles)
	p.total = max(page.Total, 0)
	p.loaded = true
	p.err = nil

	// The page was requested before this total was known, or the total shrank.
	if clamped := ClampPage(q.Page, p.total, q.PageSize); clamped != q.Page {
		p.logger.Debug("page out of range, refetching",
			slog.Int("page", q.Page),
			slog.Int("clamped", clamped),
			slog.Int("total", p.total),
		)
		p.query.Page = clamped
		p.issueLocked()
		return
	}
	p.notifyLocked()
}

func (p *Paginated) stateLocked() State {
	return State{
		Query:   p.query,
		Items:   slices.Clone(p.items),
		Total:   p.total,
		Loaded:  p.loaded,
		Loading: p.loading,
		Err:     p.err,
		Version: p.version,
	}
}

// notifyLocked bumps the version and hands a snapshot to every listener on
// its own goroutine so listeners may call back into the controller.
func (p *Paginated) notifyLocked() {
	p.version++
	if len(p.listeners) == 0 {
		return
	}
	s := p.stateLocked()
	for _, fn := range p.listeners {
		go fn(s)
	}
}
