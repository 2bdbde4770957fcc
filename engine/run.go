package engine

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/use-agent/jobsift/models"
)

// DedupIndex answers membership queries over accepted identity keys.
type DedupIndex struct {
	keys map[models.JobKey]struct{}
}

// NewDedupIndex returns an empty index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{keys: make(map[models.JobKey]struct{})}
}

// Seen reports whether the key has been accepted before.
func (d *DedupIndex) Seen(k models.JobKey) bool {
	_, ok := d.keys[k]
	return ok
}

// Add records the key. It returns false if the key was already present.
func (d *DedupIndex) Add(k models.JobKey) bool {
	if _, ok := d.keys[k]; ok {
		return false
	}
	d.keys[k] = struct{}{}
	return true
}

// Run is the state of one scrape session. Exactly one run is active at a
// time; the orchestrator creates it on start and discards it on any terminal
// transition.
//
// Accept is called from two places: the sequential page walk and the
// change-watcher's re-extraction pass. Those run on different goroutines, so
// the record sequence and index are guarded by a mutex — this is the explicit
// serialization of the two append paths.
type Run struct {
	ID string

	active atomic.Bool

	// walking is set while the controlled page walk owns the visible cards.
	// The watcher's supplementary pass must not claim identity keys inside
	// that window: a first-accepted basic record would permanently block the
	// walk's enriched one.
	walking atomic.Bool

	mu             sync.Mutex
	records        []models.JobRecord
	index          *DedupIndex
	lowYieldStreak int
}

func newRun() *Run {
	r := &Run{
		ID:    uuid.NewString(),
		index: NewDedupIndex(),
	}
	r.active.Store(true)
	return r
}

// Active reports whether the run is still in the Running state. This is the
// cooperative cancellation flag checked between every card and every page.
func (r *Run) Active() bool { return r.active.Load() }

// Deactivate moves the run out of Running. Idempotent.
func (r *Run) Deactivate() { r.active.Store(false) }

// BeginWalk and EndWalk bracket one page's controlled card walk.
func (r *Run) BeginWalk() { r.walking.Store(true) }
func (r *Run) EndWalk()   { r.walking.Store(false) }

// Walking reports whether a controlled page walk is in progress.
func (r *Run) Walking() bool { return r.walking.Load() }

// Accept appends the record unless its identity key is already present.
// Records are never mutated after acceptance.
func (r *Run) Accept(rec models.JobRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.index.Add(rec.Key()) {
		return false
	}
	r.records = append(r.records, rec)
	return true
}

// Seen reports whether the identity key was already accepted.
func (r *Run) Seen(k models.JobKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index.Seen(k)
}

// RecordYield applies the low-yield heuristic for one completed page and
// reports whether the run should abort. A page below the threshold extends
// the streak; any page at or above it resets the streak to zero.
func (r *Run) RecordYield(accepted int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if accepted < LowYieldThreshold {
		r.lowYieldStreak++
		return r.lowYieldStreak >= LowYieldLimit
	}
	r.lowYieldStreak = 0
	return false
}

// Records returns a snapshot of the accepted sequence in arrival order.
func (r *Run) Records() []models.JobRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.JobRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of accepted records.
func (r *Run) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
