package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/jobsift/engine"
	"github.com/use-agent/jobsift/models"
)

func TestDedupIndex(t *testing.T) {
	t.Parallel()

	idx := engine.NewDedupIndex()
	key := models.JobKey{Title: "Engineer", Company: "Acme", URL: "https://x/1"}

	assert.False(t, idx.Seen(key))
	assert.True(t, idx.Add(key))
	assert.True(t, idx.Seen(key))
	assert.False(t, idx.Add(key), "second add of the same key must report duplicate")

	other := models.JobKey{Title: "Engineer", Company: "Acme", URL: "https://x/2"}
	assert.True(t, idx.Add(other), "differing URL is a different listing")
}

func TestRunDedupByIdentityKey(t *testing.T) {
	t.Parallel()

	// Two records with equal (title, company, url) are the same listing
	// regardless of other field differences.
	a := models.JobRecord{Title: "Engineer", Company: "Acme", URL: "https://x/1", Location: "Berlin"}
	b := models.JobRecord{Title: "Engineer", Company: "Acme", URL: "https://x/1", Location: "Munich", Salary: "$1"}

	run := engine.NewRun()
	assert.True(t, run.Accept(a))
	assert.False(t, run.Accept(b))
	require.Len(t, run.Records(), 1)
	assert.Equal(t, "Berlin", run.Records()[0].Location, "first accepted record wins")
}

func TestRunRecordYield(t *testing.T) {
	t.Parallel()

	t.Run("three consecutive low-yield pages abort", func(t *testing.T) {
		t.Parallel()
		run := engine.NewRun()
		assert.False(t, run.RecordYield(4))
		assert.False(t, run.RecordYield(0))
		assert.True(t, run.RecordYield(2))
	})

	t.Run("a good page resets the streak", func(t *testing.T) {
		t.Parallel()
		run := engine.NewRun()
		assert.False(t, run.RecordYield(1))
		assert.False(t, run.RecordYield(1))
		assert.False(t, run.RecordYield(5))
		assert.False(t, run.RecordYield(1))
		assert.False(t, run.RecordYield(1))
		assert.True(t, run.RecordYield(1))
	})

	t.Run("threshold is strictly below five", func(t *testing.T) {
		t.Parallel()
		run := engine.NewRun()
		for i := 0; i < 10; i++ {
			assert.False(t, run.RecordYield(engine.LowYieldThreshold))
		}
	})
}

func waitFinish(t *testing.T, done <-chan finishEvent) finishEvent {
	t.Helper()
	select {
	case ev := <-done:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
		return finishEvent{}
	}
}
