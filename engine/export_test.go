package engine

// NewRun exposes the run constructor to external tests.
func NewRun() *Run { return newRun() }
