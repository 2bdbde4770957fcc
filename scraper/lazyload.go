package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// Lazy-load termination policy. The list is walked in viewport-sized steps;
// the loop ends when the scroll position reaches the content boundary, the
// card count stops changing, or the iteration cap is hit.
const (
	maxScrollIterations = 20
	stableReadLimit     = 3
	boundaryProximityPx = 100.0
	scrollStepFraction  = 0.8
)

// ScrollSurface is the minimal view of a scrollable card list the lazy-load
// driver needs. The rod-backed implementation is listSurface; tests
// substitute fakes.
type ScrollSurface interface {
	// CardCount returns the number of cards currently materialized.
	CardCount() (int, error)

	// BoundaryDistance returns the remaining scrollable distance in pixels.
	// ok is false when no scrollable container could be measured.
	BoundaryDistance() (dist float64, ok bool, err error)

	// ViewportHeight returns the visible height of the list in pixels.
	ViewportHeight() (float64, error)

	// ScrollBy scrolls the list down by offset pixels.
	ScrollBy(offset float64) error

	// ScrollToTop returns the list to its origin.
	ScrollToTop() error
}

// LazyLoad scrolls the card list in steps of scrollStepFraction of the
// viewport until one of the termination conditions holds, then returns the
// list to its origin. It returns the card count observed at exit.
//
// Termination, checked in order each iteration:
//  1. the card count is unchanged for stableReadLimit consecutive reads
//  2. the scroll position is within boundaryProximityPx of the content end
//  3. maxScrollIterations is reached
func LazyLoad(ctx context.Context, surface ScrollSurface, settle time.Duration) (int, error) {
	defer func() {
		_ = surface.ScrollToTop()
	}()

	prev := -1
	stable := 0
	count := 0
	for i := 0; i < maxScrollIterations; i++ {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}

		var err error
		count, err = surface.CardCount()
		if err != nil {
			return count, err
		}

		if count == prev {
			stable++
			if stable >= stableReadLimit {
				return count, nil
			}
		} else {
			stable = 0
		}
		prev = count

		if dist, ok, err := surface.BoundaryDistance(); err == nil && ok && dist <= boundaryProximityPx {
			return count, nil
		}

		h, err := surface.ViewportHeight()
		if err != nil {
			return count, err
		}
		if err := surface.ScrollBy(h * scrollStepFraction); err != nil {
			return count, err
		}
		if !sleepCtx(ctx, settle) {
			return count, ctx.Err()
		}
	}
	return count, nil
}

// listSurface measures and scrolls the job site's list pane. The pane
// scrolls independently of the document; when no known container matches,
// the probes fall back to the document's scrolling element.
type listSurface struct {
	page *rod.Page
}

// surfaceJS resolves the scrollable container browser-side.
var surfaceJS = fmt.Sprintf(`() => document.querySelector(%q) || document.scrollingElement`, listContainerSel)

func (s *listSurface) CardCount() (int, error) {
	res, err := s.page.Eval(fmt.Sprintf(`() => document.querySelectorAll(%q).length`, cardSel))
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (s *listSurface) BoundaryDistance() (float64, bool, error) {
	res, err := s.page.Eval(fmt.Sprintf(`() => {
		const el = (%s)();
		if (!el) return -1;
		return el.scrollHeight - el.scrollTop - el.clientHeight;
	}`, surfaceJS))
	if err != nil {
		return 0, false, err
	}
	dist := res.Value.Num()
	if dist < 0 {
		return 0, false, nil
	}
	return dist, true, nil
}

func (s *listSurface) ViewportHeight() (float64, error) {
	res, err := s.page.Eval(fmt.Sprintf(`() => {
		const el = (%s)();
		return el && el.clientHeight ? el.clientHeight : window.innerHeight;
	}`, surfaceJS))
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (s *listSurface) ScrollBy(offset float64) error {
	_, err := s.page.Eval(fmt.Sprintf(`(offset) => {
		const el = (%s)();
		if (el) { el.scrollTop += offset; } else { window.scrollBy(0, offset); }
	}`, surfaceJS), offset)
	return err
}

func (s *listSurface) ScrollToTop() error {
	_, err := s.page.Eval(fmt.Sprintf(`() => {
		const el = (%s)();
		if (el) { el.scrollTop = 0; } else { window.scrollTo(0, 0); }
	}`, surfaceJS))
	return err
}
