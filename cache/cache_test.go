package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/jobsift/extract"
)

func TestMemoGetSet(t *testing.T) {
	t.Parallel()
	m := New(10)

	const url = "https://example.com/jobs/view/42"

	_, ok := m.Get(url)
	assert.False(t, ok)

	m.Set(url, extract.DetailFields{JobType: "Full-time", Skills: "Go, SQL"})

	got, ok := m.Get(url)
	assert.True(t, ok)
	assert.Equal(t, "Full-time", got.JobType)
	assert.Equal(t, "Go, SQL", got.Skills)

	_, ok = m.Get("https://example.com/jobs/view/43")
	assert.False(t, ok)
}

func TestMemoCapacityEviction(t *testing.T) {
	t.Parallel()
	m := New(5)

	for i := 0; i < 8; i++ {
		m.Set(fmt.Sprintf("https://example.com/jobs/view/%d", i), extract.DetailFields{})
	}

	hits := 0
	for i := 0; i < 8; i++ {
		if _, ok := m.Get(fmt.Sprintf("https://example.com/jobs/view/%d", i)); ok {
			hits++
		}
	}
	assert.LessOrEqual(t, hits, 5)
}
