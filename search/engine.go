package search

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pdfview/doc"
	"pdfview/index"
)

// ErrEmptyQuery rejects searches with nothing to look for. No session is
// created for an empty query.
var ErrEmptyQuery = errors.New("search: empty query")

// EngineConfig tunes the coordinator. The zero value picks the defaults.
type EngineConfig struct {
	// Debounce is the quiet period after the last query edit before a scan
	// starts.
	Debounce time.Duration

	// SlowAfter is the soft timeout after which a still-running scan emits a
	// progress advisory. It never cancels the scan.
	SlowAfter time.Duration

	// Concurrency bounds how many pages are processed at once.
	Concurrency int
}

const (
	defaultDebounce    = 250 * time.Millisecond
	defaultSlowAfter   = 3 * time.Second
	defaultConcurrency = 4
)

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Debounce <= 0 {
		c.Debounce = defaultDebounce
	}
	if c.SlowAfter <= 0 {
		c.SlowAfter = defaultSlowAfter
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	return c
}

// Progress is an advisory signal about a scan that outlived the soft
// timeout.
type Progress struct {
	SessionID uuid.UUID
	Query     string
	Elapsed   time.Duration
}

// Engine coordinates debounced, cancellable searches over one document and
// publishes immutable Session snapshots. Only one scan runs at a time;
// starting a new search cancels the previous one, and a canceled scan never
// publishes its partial match list. Readers of Session always observe either
// the previous complete session or the new one, never a mix.
type Engine struct {
	cache *index.Cache
	cfg   EngineConfig

	published atomic.Pointer[Session]

	mu          sync.Mutex
	query       string
	options     Options
	timer       *time.Timer
	generation  int
	cancel      context.CancelFunc
	nav         *Navigator
	subscribers map[int]func(*Session)
	nextSubID   int
	progressFn  func(Progress)
}

func NewEngine(cache *index.Cache, cfg EngineConfig) *Engine {
	e := &Engine{
		cache: cache,
		cfg:   cfg.withDefaults(),
		nav:   NewNavigator(nil),
	}
	e.published.Store(newSession("", Options{}, Idle))
	return e
}

// SetQuery records a new query value and restarts the debounce window; only
// the value in effect when the window goes quiet triggers a scan. An empty
// query cancels any running scan and clears the published session without
// ever invoking the finder.
func (e *Engine) SetQuery(query string) {
	e.mu.Lock()
	e.query = query
	if query == "" {
		e.stopTimerLocked()
		e.cancelLocked()
		opts := e.options
		e.mu.Unlock()
		e.publish(newSession("", opts, Idle))
		return
	}
	e.armTimerLocked()
	e.mu.Unlock()
}

// SetOptions changes the match options and, with a non-empty query pending,
// triggers a debounced re-search.
func (e *Engine) SetOptions(opts Options) {
	e.mu.Lock()
	e.options = opts
	if e.query != "" {
		e.armTimerLocked()
	}
	e.mu.Unlock()
}

// Cancel aborts any running scan and drops a pending debounced one. The
// published session is left untouched.
func (e *Engine) Cancel() {
	e.mu.Lock()
	e.stopTimerLocked()
	e.cancelLocked()
	e.mu.Unlock()
}

// Session returns the most recently published snapshot. It is safe to poll.
func (e *Engine) Session() *Session { return e.published.Load() }

// Subscribe registers fn to run after every publication. The returned
// function removes the subscription.
func (e *Engine) Subscribe(fn func(*Session)) func() {
	e.mu.Lock()
	if e.subscribers == nil {
		e.subscribers = make(map[int]func(*Session))
	}
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// SetProgressFunc registers the advisory callback for slow scans.
func (e *Engine) SetProgressFunc(fn func(Progress)) {
	e.mu.Lock()
	e.progressFn = fn
	e.mu.Unlock()
}

// Next selects the following match of the current session, wrapping around.
func (e *Engine) Next() (Match, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nav.Next()
}

// Previous selects the preceding match of the current session, wrapping
// around.
func (e *Engine) Previous() (Match, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nav.Previous()
}

// Current returns the selected match of the current session.
func (e *Engine) Current() (Match, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nav.Current()
}

// Run performs one scan synchronously, bypassing the debounce window. A
// still-running scan is canceled first. The resulting session is published
// under the same rules as a debounced one, and also returned so callers can
// inspect canceled runs.
func (e *Engine) Run(ctx context.Context, query string, opts Options) (*Session, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	e.mu.Lock()
	e.query = query
	e.options = opts
	e.stopTimerLocked()
	runCtx := e.beginRunLocked(ctx)
	gen := e.generation
	e.mu.Unlock()

	session := e.scan(runCtx, query, opts)
	e.finishRun(gen, session)
	if session.State == Failed {
		return session, session.Err
	}
	return session, nil
}

func (e *Engine) armTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.cfg.Debounce, e.fire)
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// cancelLocked aborts the running scan, if any, and bumps the generation so
// a still-unwinding run can never publish over a newer one.
func (e *Engine) cancelLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
}

func (e *Engine) beginRunLocked(parent context.Context) context.Context {
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	e.cancel = cancel
	e.generation++
	return ctx
}

// fire runs when the debounce window goes quiet: whatever query value is in
// effect now is the one that searches.
func (e *Engine) fire() {
	e.mu.Lock()
	query, opts := e.query, e.options
	if query == "" {
		e.mu.Unlock()
		return
	}
	if cur := e.published.Load(); cur.State == Completed && cur.Query == query && cur.Options == opts {
		// Same search as the one already published.
		e.mu.Unlock()
		return
	}
	ctx := e.beginRunLocked(context.Background())
	gen := e.generation
	e.mu.Unlock()

	go func() {
		session := e.scan(ctx, query, opts)
		e.finishRun(gen, session)
	}()
}

// finishRun publishes the session unless a newer run has started since.
// Canceled sessions are never published: their partial results are dropped
// and readers keep seeing the previous snapshot. The staleness check and the
// snapshot swap share one critical section so a stale run can never race a
// newer publication.
func (e *Engine) finishRun(gen int, session *Session) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if session.State == Canceled {
		e.mu.Unlock()
		return
	}
	subs := e.publishLocked(session)
	e.mu.Unlock()
	notify(subs, session)
}

// scan walks every page of the document in ascending order. Pages are
// processed by a bounded worker group but results are always assembled in
// page order, so the published match list is deterministic regardless of
// scheduling. Per-page extraction failures skip the page; any other error
// fails the session.
func (e *Engine) scan(ctx context.Context, query string, opts Options) *Session {
	session := newSession(query, opts, Running)
	start := time.Now()

	stopWatch := e.watchSlow(ctx, session, start)
	defer stopWatch()

	pageCount := e.cache.PageCount()
	perPage := make([][]Match, pageCount)
	var skipMu sync.Mutex
	var skipped []int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for page := 0; page < pageCount; page++ {
		page := page
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pg, err := e.cache.Get(gctx, page)
			if err != nil {
				var extractErr *doc.ExtractionError
				if errors.As(err, &extractErr) {
					skipMu.Lock()
					skipped = append(skipped, page)
					skipMu.Unlock()
					return nil
				}
				return err
			}
			perPage[page] = matchPage(pg, query, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			session.State = Canceled
			return session
		}
		session.State = Failed
		session.Err = err
		return session
	}

	slices.Sort(skipped)
	session.SkippedPages = skipped
	for _, matches := range perPage {
		session.Matches = append(session.Matches, matches...)
	}
	session.State = Completed
	return session
}

// matchPage runs the finder over one page and attaches highlight geometry to
// every span.
func matchPage(pg *index.Page, query string, opts Options) []Match {
	spans := Find(pg, query, opts)
	if len(spans) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(spans))
	for _, span := range spans {
		matches = append(matches, Match{
			Page:   pg.Number,
			Start:  span.Start,
			Length: span.Length,
			Text:   spanText(pg, span),
			Rects:  MergeRects(pg.Chars, span.Start, span.Length),
		})
	}
	return matches
}

func spanText(pg *index.Page, span Span) string {
	runes := make([]rune, 0, span.Length)
	for _, c := range pg.Chars[span.Start : span.Start+span.Length] {
		runes = append(runes, c.Rune)
	}
	return string(runes)
}

// watchSlow emits one progress advisory if the scan outlives the soft
// timeout. It never cancels anything.
func (e *Engine) watchSlow(ctx context.Context, session *Session, start time.Time) func() {
	e.mu.Lock()
	fn := e.progressFn
	e.mu.Unlock()
	if fn == nil {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		timer := time.NewTimer(e.cfg.SlowAfter)
		defer timer.Stop()
		select {
		case <-timer.C:
			fn(Progress{SessionID: session.ID, Query: session.Query, Elapsed: time.Since(start)})
		case <-ctx.Done():
		case <-done:
		}
	}()
	return func() { close(done) }
}

// publish swaps in the new snapshot, re-binds the navigator and notifies
// subscribers outside the lock.
func (e *Engine) publish(session *Session) {
	e.mu.Lock()
	subs := e.publishLocked(session)
	e.mu.Unlock()
	notify(subs, session)
}

func (e *Engine) publishLocked(session *Session) []func(*Session) {
	e.published.Store(session)
	e.nav.Bind(session)
	subs := make([]func(*Session), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(*Session), session *Session) {
	for _, fn := range subs {
		fn(session)
	}
}
