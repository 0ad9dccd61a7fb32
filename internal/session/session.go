package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalog-api/internal/collection"
	"catalog-api/internal/scroll"
)

// Session holds the view state of one client: the welcome flag, both
// collection controllers and the sticky header tracker.
type Session struct {
	ID string

	Articles *collection.Paginated
	Products *collection.Filtered
	Header   *scroll.Tracker
	Window   *scroll.Window

	detach func()
	loadMu sync.Mutex

	mu       sync.Mutex
	welcomed bool
	reused   bool
	lastSeen time.Time
	closed   bool
}

// ConsumeWelcome reports whether the welcome banner should be shown. Only the
// first call for a session returns true.
func (s *Session) ConsumeWelcome() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.welcomed {
		return false
	}
	s.welcomed = true
	return true
}

// EnsureProducts loads the product collection on first use. A load that
// failed on either side is attempted again on the next call.
func (s *Session) EnsureProducts(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.Products.Loaded() && s.Products.Err() == nil {
		return nil
	}
	return s.Products.Load(ctx)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.reused = true
	s.mu.Unlock()
}

// idleSince reports when the session was last seen and whether any request
// after the first one carried its id.
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, s.reused
}

// Close cancels in-flight fetches and detaches the header from its scroll
// source. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Articles.Close()
	s.detach()
}

type Options struct {
	Articles  collection.ArticleFetcher
	Products  collection.ProductLoader
	PageSizes []int
	Logger    *slog.Logger

	// UnusedIdle is the shorter idle limit for sessions no request has come
	// back to, e.g. those handed to cookie-less clients. Zero disables it.
	UnusedIdle time.Duration

	// Now is used for idle tracking; defaults to time.Now.
	Now func() time.Time
}

// Store keeps sessions by id.
type Store struct {
	opts   Options
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating a new one when id is unknown. The
// second result is true when a session was created.
func (st *Store) Get(id string) (*Session, bool) {
	now := st.opts.Now()

	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch(now)
		return s, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		s.touch(now)
		return s, false
	}

	s = st.newSession(now)
	st.sessions[s.ID] = s
	st.logger.Debug("session created", slog.String("session", s.ID))
	return s, true
}

func (st *Store) newSession(now time.Time) *Session {
	id := uuid.NewString()
	logger := st.logger.With(slog.String("session", id))

	s := &Session{
		ID: id,
		Articles: collection.NewPaginated(st.opts.Articles, collection.PaginatedOptions{
			PageSizes: st.opts.PageSizes,
			Logger:    logger,
		}),
		Products: collection.NewFiltered(st.opts.Products, logger),
		Header:   scroll.NewTracker(),
		Window:   scroll.NewWindow(),
		lastSeen: now,
	}
	s.detach = s.Header.Attach(s.Window)
	return s
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep closes and removes sessions idle for longer than maxIdle, or for
// longer than UnusedIdle when never reused, and returns how many were removed.
func (st *Store) Sweep(maxIdle time.Duration) int {
	now := st.opts.Now()
	cutoff := now.Add(-maxIdle)
	unusedCutoff := cutoff
	if st.opts.UnusedIdle > 0 && st.opts.UnusedIdle < maxIdle {
		unusedCutoff = now.Add(-st.opts.UnusedIdle)
	}

	st.mu.Lock()
	var idle []*Session
	for id, s := range st.sessions {
		seen, reused := s.idleSince()
		limit := cutoff
		if !reused {
			limit = unusedCutoff
		}
		if seen.Before(limit) {
			idle = append(idle, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		st.logger.Info("sessions swept", slog.Int("removed", len(idle)), slog.Int("remaining", st.Len()))
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep(maxIdle)
		}
	}
}

// CloseAll closes every session, used on shutdown.
func (st *Store) CloseAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
