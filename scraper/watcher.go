package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// watcherPollInterval is how often the Go side reads the browser-side
// insertion counter.
const watcherPollInterval = time.Second

// observerJS installs a MutationObserver that counts card insertions into
// window.__jobsiftWatch. Installation is idempotent.
var observerJS = fmt.Sprintf(`() => {
	if (window.__jobsiftWatch) return;
	const isCard = (n) => n.nodeType === 1 && (
		(n.matches && n.matches(%[1]q)) ||
		(n.querySelector && n.querySelector(%[1]q))
	);
	const state = { count: 0, stop: null };
	const obs = new MutationObserver((muts) => {
		for (const m of muts) {
			for (const n of m.addedNodes) {
				if (isCard(n)) state.count++;
			}
		}
	});
	obs.observe(document.body, { childList: true, subtree: true });
	state.stop = () => obs.disconnect();
	window.__jobsiftWatch = state;
}`, cardSel)

// Watch starts observing ad-hoc card insertions outside the controlled page
// walk. On each observed insertion it waits WatcherSettleDelay and then
// invokes onInsert. The subscription self-disables after WatcherTTL; the
// returned func stops it early. Both paths disconnect the browser-side
// observer.
func (sess *Session) Watch(ctx context.Context, onInsert func()) (stop func()) {
	p := sess.page.Context(ctx)
	if _, err := p.Eval(observerJS); err != nil {
		slog.Warn("mutation watcher injection failed", "error", err)
		return func() {}
	}

	done := make(chan struct{})
	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }

	go func() {
		defer func() {
			_, _ = sess.page.Eval(`() => {
				if (window.__jobsiftWatch) {
					window.__jobsiftWatch.stop();
					window.__jobsiftWatch = undefined;
				}
			}`)
		}()

		ttl := time.NewTimer(sess.cfg.WatcherTTL)
		defer ttl.Stop()
		tick := time.NewTicker(watcherPollInterval)
		defer tick.Stop()

		last := 0
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ttl.C:
				slog.Debug("mutation watcher expired", "ttl", sess.cfg.WatcherTTL)
				return
			case <-tick.C:
				// Full navigations wipe the page's JS state. Re-install the
				// observer (idempotent) so the subscription survives
				// pagination, and resync the baseline when the counter reset.
				if _, err := p.Eval(observerJS); err != nil {
					continue
				}
				res, err := p.Eval(`() => window.__jobsiftWatch ? window.__jobsiftWatch.count : 0`)
				if err != nil {
					continue
				}
				n := res.Value.Int()
				if n < last {
					last = n
				}
				if n > last {
					last = n
					if !sleepCtx(ctx, sess.cfg.WatcherSettleDelay) {
						return
					}
					onInsert()
				}
			}
		}
	}()
	return stop
}
