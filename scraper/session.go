package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/jobsift/config"
	"github.com/use-agent/jobsift/engine"
	"github.com/use-agent/jobsift/models"
)

// Selector fallback chains for the job site. Browser-side probes take the
// same classes the extract package matches against parsed HTML; the site
// renders different shells for the logged-in and guest experiences, so each
// selector lists both.
const (
	cardSel = "li[data-occludable-job-id], li.jobs-search-results__list-item, div.job-card-container"

	listContainerSel = ".jobs-search-results-list, .scaffold-layout__list, ul.jobs-search__results-list"

	detailPanelSel = ".jobs-search__job-details--wrapper, .scaffold-layout__detail, .jobs-details"

	detailTitleSel = ".job-details-jobs-unified-top-card__job-title, .top-card-layout__title, .jobs-unified-top-card__job-title"

	resultsCountSel = ".jobs-search-results-list__subtitle, .results-context-header__job-count, small.jobs-search-results-list__text"

	pageIndicatorSel = ".jobs-search-pagination__page-state, .artdeco-pagination__page-state"
)

// Session is a single browser tab wired for scraping: stealth injected,
// resource hijack mounted. It implements engine.Site.
type Session struct {
	page   *rod.Page
	router *rod.HijackRouter
	cfg    config.ScrapeConfig
}

// NewSession opens a fresh tab with stealth and resource blocking installed.
// Both MUST be mounted before the first navigation; they only take effect
// for navigations that happen after they are installed.
func (s *Scraper) NewSession(cfg config.ScrapeConfig) (*Session, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth",
			"error", evalErr,
		)
	}

	// Consistent headers across runs; the site's guest experience varies
	// with Accept-Language.
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		}),
	}.Call(page)

	router := setupHijack(page, s.browserCfg.BlockedResourceTypes)

	return &Session{
		page:   page,
		router: router,
		cfg:    cfg,
	}, nil
}

// Close stops the hijack router and closes the tab.
func (sess *Session) Close() {
	if sess.router != nil {
		_ = sess.router.Stop()
	}
	_ = sess.page.Close()
}

// Navigate loads the URL under the navigation deadline and waits for the
// DOM to stop mutating. A non-converging DOM is not an error; the page is
// used as-is.
func (sess *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, sess.cfg.NavigationTimeout)
	defer cancel()

	p := sess.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}

	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}
	return nil
}

// Location returns the current navigable location, "" when unreadable.
func (sess *Session) Location(ctx context.Context) string {
	return evalStringOrEmpty(sess.page.Context(ctx), `() => window.location.href`)
}

// Classify probes URL shape first, then falls back to DOM presence probes.
// Every probe is best-effort: an unreadable page is PageUnrecognized, never
// an error.
func (sess *Session) Classify(ctx context.Context) engine.PageKind {
	loc := sess.Location(ctx)
	if strings.Contains(loc, "/jobs/view/") {
		return engine.PageDetail
	}
	if strings.Contains(loc, "/jobs/search") || strings.Contains(loc, "/jobs/collections") {
		return engine.PageListing
	}

	p := sess.page.Context(ctx)
	if has, _, err := p.Has(cardSel); err == nil && has {
		return engine.PageListing
	}
	if has, _, err := p.Has(detailTitleSel); err == nil && has {
		return engine.PageDetail
	}
	return engine.PageUnrecognized
}

// LoadAllCards drives the lazy-loaded list until it stops growing, then
// scrolls back to the top so the card walk starts from the first card.
func (sess *Session) LoadAllCards(ctx context.Context) error {
	surface := &listSurface{page: sess.page.Context(ctx)}
	count, err := LazyLoad(ctx, surface, sess.cfg.ScrollSettleDelay)
	if err != nil {
		return err
	}
	slog.Debug("lazy-load pass finished", "cards", count)
	return nil
}

// Cards returns the outer HTML of every visible card in document order.
func (sess *Session) Cards(ctx context.Context) ([]string, error) {
	p := sess.page.Context(ctx)
	els, err := p.Elements(cardSel)
	if err != nil {
		return nil, categorizeError(err, "failed to query job cards")
	}

	htmls := make([]string, 0, len(els))
	for _, el := range els {
		h, htmlErr := el.HTML()
		if htmlErr != nil {
			// A card detached mid-read (virtualized list); skip it, the
			// rescan pass will pick it up if it reappears.
			continue
		}
		htmls = append(htmls, h)
	}
	return htmls, nil
}

// OpenCard scrolls the indexed card into view, clicks it, and polls for the
// detail panel to materialize. Poll expiry is a soft timeout: it returns
// ("", nil) so the caller keeps the card's basic record.
func (sess *Session) OpenCard(ctx context.Context, index int) (string, error) {
	p := sess.page.Context(ctx)
	els, err := p.Elements(cardSel)
	if err != nil {
		return "", categorizeError(err, "failed to query job cards")
	}
	if index < 0 || index >= len(els) {
		return "", fmt.Errorf("card index %d out of range (have %d cards)", index, len(els))
	}

	el := els[index]
	if scrollErr := el.ScrollIntoView(); scrollErr != nil {
		return "", categorizeError(scrollErr, "failed to scroll card into view")
	}
	if !sleepCtx(ctx, sess.cfg.CardSettleDelay) {
		return "", ctx.Err()
	}

	if clickErr := el.Click(proto.InputMouseButtonLeft, 1); clickErr != nil {
		return "", categorizeError(clickErr, "failed to click job card")
	}

	settled := pollUntil(ctx, sess.cfg.DetailPollInterval, sess.cfg.DetailPollTimeout, func() bool {
		return textOrEmpty(p, detailTitleSel) != ""
	})
	if !settled {
		return "", nil
	}

	panel, panelErr := p.Element(detailPanelSel)
	if panelErr != nil {
		return "", nil
	}
	h, htmlErr := panel.HTML()
	if htmlErr != nil {
		return "", categorizeError(htmlErr, "failed to read detail panel HTML")
	}
	return h, nil
}

// DetailHTML returns the full page HTML for standalone detail pages.
func (sess *Session) DetailHTML(ctx context.Context) (string, error) {
	h, err := sess.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return h, nil
}

// ResultsText returns the rendered "N results" text, "" when absent.
func (sess *Session) ResultsText(ctx context.Context) string {
	return textOrEmpty(sess.page.Context(ctx), resultsCountSel)
}

// IndicatorText returns the rendered "Page X of Y" text, "" when absent.
func (sess *Session) IndicatorText(ctx context.Context) string {
	return textOrEmpty(sess.page.Context(ctx), pageIndicatorSel)
}

// textOrEmpty reads the trimmed textContent of the first element matching
// the selector, swallowing errors.
func textOrEmpty(p *rod.Page, selector string) string {
	js := fmt.Sprintf(`() => {
		const el = document.querySelector(%q);
		return el ? el.textContent.trim() : "";
	}`, selector)
	return evalStringOrEmpty(p, js)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
