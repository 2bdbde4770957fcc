// Package engine drives a scrape run: classify the page, resolve pagination,
// lazy-load and walk the cards with dedup and fixed pacing, enrich through
// the detail view, and decide when to stop.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/jobsift/config"
	"github.com/use-agent/jobsift/extract"
	"github.com/use-agent/jobsift/models"
)

// PageKind is the classification of the current page.
type PageKind int

const (
	PageUnrecognized PageKind = iota
	PageListing
	PageDetail
)

// Outcome is a terminal run state.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeStopped   Outcome = "stopped"
	OutcomeAborted   Outcome = "aborted"
)

// Low-yield heuristic: a page contributing fewer than LowYieldThreshold
// net-new records is a low-yield page; LowYieldLimit consecutive ones abort
// the run as "likely end of unique results".
const (
	LowYieldThreshold = 5
	LowYieldLimit     = 3
)

var (
	// ErrRunActive is returned by Start while a run is in progress.
	ErrRunActive = errors.New("a scrape run is already active")

	// ErrPageUnrecognized is returned by Start when the page classifies as
	// neither a listing nor a detail view. It is a user-facing notice, not
	// a failure: the orchestrator stays idle.
	ErrPageUnrecognized = errors.New("page not recognized as a job listing or job detail view")
)

// Site is the browser-facing surface the orchestrator drives. The rod-backed
// implementation lives in the scraper package; tests substitute fakes.
type Site interface {
	// Navigate loads the URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Location returns the current navigable location.
	Location(ctx context.Context) string

	// Classify probes the page. It never fails; an unprobeable page is
	// PageUnrecognized.
	Classify(ctx context.Context) PageKind

	// LoadAllCards drives lazy-loaded cards into existence and leaves the
	// list scrolled back to the top.
	LoadAllCards(ctx context.Context) error

	// Cards returns the outer HTML of every visible card in document order.
	Cards(ctx context.Context) ([]string, error)

	// OpenCard clicks into the indexed card's detail view and returns the
	// detail panel HTML once it materializes. A soft timeout returns ""
	// with a nil error.
	OpenCard(ctx context.Context, index int) (string, error)

	// DetailHTML returns the standalone detail page's HTML.
	DetailHTML(ctx context.Context) (string, error)

	// ResultsText returns the rendered "N results" text, "" when absent.
	ResultsText(ctx context.Context) string

	// IndicatorText returns the rendered "Page X of Y" text, "" when absent.
	IndicatorText(ctx context.Context) string

	// Watch observes ad-hoc card insertions outside the controlled page
	// walk and invokes onInsert after a settle delay. The subscription
	// self-disables after its TTL; the returned func stops it early.
	Watch(ctx context.Context, onInsert func()) (stop func())
}

// Store is the persistence collaborator. Merge folds a batch into the
// persisted set by identity key and returns the new total.
type Store interface {
	Merge(ctx context.Context, jobs []models.JobRecord) (int, error)
}

// Memo caches detail-extraction results by job URL so a repeat encounter
// promotes the record without re-clicking into the detail view.
type Memo interface {
	Get(url string) (extract.DetailFields, bool)
	Set(url string, f extract.DetailFields)
}

// Orchestrator is the top-level state machine. It owns all mutable run
// state; every other component is called synchronously and returns pure
// results.
type Orchestrator struct {
	site    Site
	store   Store
	cfg     config.ScrapeConfig
	limiter *rate.Limiter
	clock   func() time.Time

	memo     Memo
	onFinish func(runID string, outcome Outcome, records int)

	mu     sync.Mutex // guards run and cancel against concurrent commands
	run    *Run
	cancel context.CancelFunc
}

// New creates an Orchestrator. The card limiter enforces the fixed
// inter-card delay — a deliberate load-shedding measure, not an artifact, so
// card processing is never parallelized.
func New(site Site, store Store, cfg config.ScrapeConfig) *Orchestrator {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.CardDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.CardDelay), 1)
	}
	return &Orchestrator{
		site:    site,
		store:   store,
		cfg:     cfg,
		limiter: limiter,
		clock:   time.Now,
	}
}

// SetMemo installs the optional detail-enrichment memo.
func (o *Orchestrator) SetMemo(m Memo) { o.memo = m }

// SetOnFinish installs a callback invoked on every terminal transition.
func (o *Orchestrator) SetOnFinish(fn func(runID string, outcome Outcome, records int)) {
	o.onFinish = fn
}

// Start begins a run: navigate to the target, classify, and if the page is a
// listing or detail view, walk it on a background goroutine. Only one run
// may be active at a time.
func (o *Orchestrator) Start(ctx context.Context, target string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run != nil && o.run.Active() {
		return "", ErrRunActive
	}

	if err := o.site.Navigate(ctx, target); err != nil {
		return "", models.NewScrapeError(models.ErrCodeNavigation, "failed to open target page", err)
	}

	kind := o.site.Classify(ctx)
	if kind == PageUnrecognized {
		return "", ErrPageUnrecognized
	}

	run := newRun()
	runCtx, cancel := context.WithCancel(context.Background())
	o.run = run
	o.cancel = cancel

	slog.Info("run starting", "run", run.ID, "target", target, "kind", kind)
	go func() {
		defer cancel()
		switch kind {
		case PageDetail:
			o.detailRun(runCtx, run)
		case PageListing:
			o.listingRun(runCtx, run)
		}
	}()
	return run.ID, nil
}

// Stop requests a cooperative stop. In-flight suspensions are not
// interrupted; the next checkpoint observes the flag. Returns false when no
// run is active.
func (o *Orchestrator) Stop() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == nil || !o.run.Active() {
		return false
	}
	slog.Info("stop requested", "run", o.run.ID)
	o.run.Deactivate()
	return true
}

// Shutdown stops any active run and cancels its context. For process exit;
// STOP_SCRAPING uses Stop.
func (o *Orchestrator) Shutdown() {
	o.Stop()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Active reports whether a run is in progress.
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run != nil && o.run.Active()
}

// Jobs returns a snapshot of the current (or most recent) run's records.
func (o *Orchestrator) Jobs() []models.JobRecord {
	o.mu.Lock()
	run := o.run
	o.mu.Unlock()
	if run == nil {
		return nil
	}
	return run.Records()
}

// detailRun is the single-extraction path: no pagination loop, Completed
// immediately.
func (o *Orchestrator) detailRun(ctx context.Context, run *Run) {
	loc := o.site.Location(ctx)
	pageHTML, err := o.site.DetailHTML(ctx)
	if err != nil {
		slog.Warn("detail page read failed", "run", run.ID, "error", err)
	} else if rec := extract.FromDetail(pageHTML, loc, o.clock()); rec != nil {
		run.Accept(*rec)
	}
	o.finish(run, OutcomeCompleted, "")
}

// listingRun is the paginated walk. Pagination is resolved fresh at the top
// of every page because the rendered signals can drift between reads.
func (o *Orchestrator) listingRun(ctx context.Context, run *Run) {
	stopWatch := o.site.Watch(ctx, func() { o.rescan(ctx, run) })
	if stopWatch != nil {
		defer stopWatch()
	}

	for run.Active() && ctx.Err() == nil {
		// The walk owns the visible cards from lazy-load through the last
		// card; the watcher defers to it (see rescan).
		run.BeginWalk()
		if err := o.site.LoadAllCards(ctx); err != nil {
			// The lazy-load driver is a heuristic; a failed pass means
			// extraction sees whatever rendered.
			slog.Warn("lazy load pass failed", "run", run.ID, "error", err)
		}

		loc := o.site.Location(ctx)
		pag := ResolvePagination(o.site.ResultsText(ctx), o.site.IndicatorText(ctx), OffsetFromURL(loc))
		slog.Info("page resolved",
			"run", run.ID,
			"page", pag.CurrentPage,
			"totalPages", pag.TotalPages,
			"totalResults", pag.TotalResults,
		)

		accepted, duplicates, rejected := o.walkCards(ctx, run, loc)
		run.EndWalk()
		slog.Info("page walked",
			"run", run.ID,
			"page", pag.CurrentPage,
			"accepted", accepted,
			"duplicates", duplicates,
			"rejected", rejected,
		)

		if !run.Active() {
			o.finish(run, OutcomeStopped, "stopped by user")
			return
		}

		if run.RecordYield(accepted) {
			o.finish(run, OutcomeAborted, "likely end of unique results")
			return
		}

		// Hand the batch to the persistence collaborator after every page,
		// not only at session end, so a lost session loses at most one page.
		o.persist(run)

		if pag.CurrentPage >= pag.TotalPages {
			o.finish(run, OutcomeCompleted, "")
			return
		}

		next, err := OffsetURL(loc, pag.CurrentPage+1)
		if err == nil {
			err = o.site.Navigate(ctx, next)
		}
		if err != nil {
			slog.Warn("pagination navigation failed", "run", run.ID, "error", err)
			o.finish(run, OutcomeStopped, "navigation to next page failed")
			return
		}
		sleep(ctx, o.cfg.PageSettleDelay)
	}

	o.finish(run, OutcomeStopped, "run context ended")
}

// walkCards processes every visible card in document order, sequentially.
// Duplicates and rejects are counted separately from accepted.
func (o *Orchestrator) walkCards(ctx context.Context, run *Run, pageURL string) (accepted, duplicates, rejected int) {
	cards, err := o.site.Cards(ctx)
	if err != nil {
		slog.Warn("card enumeration failed", "run", run.ID, "error", err)
		return 0, 0, 0
	}

	for i, cardHTML := range cards {
		if !run.Active() || ctx.Err() != nil {
			return accepted, duplicates, rejected
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return accepted, duplicates, rejected
		}

		rec := extract.FromCard(cardHTML, pageURL, o.clock())
		if rec == nil {
			rejected++
			continue
		}
		if run.Seen(rec.Key()) {
			duplicates++
			continue
		}

		o.enrichCard(ctx, i, rec)

		if run.Accept(*rec) {
			accepted++
		} else {
			duplicates++
		}
	}
	return accepted, duplicates, rejected
}

// enrichCard promotes a basic record through the detail view. Best-effort:
// any failure leaves the basic record untouched, never discards it.
func (o *Orchestrator) enrichCard(ctx context.Context, index int, rec *models.JobRecord) {
	if o.memo != nil {
		if f, ok := o.memo.Get(rec.URL); ok {
			f.Apply(rec)
			return
		}
	}

	detailHTML, err := o.site.OpenCard(ctx, index)
	if err != nil {
		slog.Debug("enrichment degraded to basic record", "url", rec.URL, "error", err)
		return
	}
	if detailHTML == "" {
		// Soft timeout: the panel never materialized.
		return
	}

	f := extract.Fields(detailHTML)
	f.Apply(rec)
	if o.memo != nil {
		o.memo.Set(rec.URL, f)
	}
}

// rescan is the watcher-triggered one-off pass: re-extract whatever cards
// are visible, non-enriching, relying on Accept's dedup. It does not
// participate in pagination accounting, and it yields to an in-progress
// page walk — the observer fires for the lazy-load's own insertions, and a
// basic record accepted here would otherwise outrace the walk's enriched
// one for the same identity key.
func (o *Orchestrator) rescan(ctx context.Context, run *Run) {
	if !run.Active() || run.Walking() || ctx.Err() != nil {
		return
	}
	cards, err := o.site.Cards(ctx)
	if err != nil {
		return
	}
	loc := o.site.Location(ctx)
	added := 0
	for _, cardHTML := range cards {
		if run.Walking() {
			return
		}
		rec := extract.FromCard(cardHTML, loc, o.clock())
		if rec == nil {
			continue
		}
		if run.Accept(*rec) {
			added++
		}
	}
	if added > 0 {
		slog.Info("watcher pass accepted records", "run", run.ID, "added", added)
	}
}

// finish performs the terminal transition and reports the accumulated
// sequence to the persistence collaborator.
func (o *Orchestrator) finish(run *Run, outcome Outcome, notice string) {
	run.Deactivate()
	o.persist(run)
	count := run.Len()
	slog.Info("run finished", "run", run.ID, "outcome", string(outcome), "records", count, "notice", notice)
	if o.onFinish != nil {
		o.onFinish(run.ID, outcome, count)
	}
}

// persist merges the run's snapshot into the store. Merge is idempotent by
// identity key, so handing over the full accumulated set every page is safe.
// Uses a fresh context: persistence must survive run-context cancellation.
func (o *Orchestrator) persist(run *Run) {
	records := run.Records()
	if len(records) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	total, err := o.store.Merge(ctx, records)
	if err != nil {
		slog.Error("batch persistence failed", "run", run.ID, "records", len(records), "error", err)
		return
	}
	slog.Debug("batch persisted", "run", run.ID, "records", len(records), "storedTotal", total)
}

// sleep suspends for d or until the context ends.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
