package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/jobsift/engine"
)

func TestResolvePagination(t *testing.T) {
	t.Parallel()

	t.Run("calculated pages from result count", func(t *testing.T) {
		t.Parallel()
		pag := engine.ResolvePagination("137 results", "", 75)
		assert.Equal(t, 6, pag.CalculatedPages)
		assert.Equal(t, 6, pag.TotalPages)
		assert.Equal(t, 137, pag.TotalResults)
		assert.Equal(t, 4, pag.CurrentPage)
	})

	t.Run("thousands separator", func(t *testing.T) {
		t.Parallel()
		pag := engine.ResolvePagination("1,234 results", "", 0)
		assert.Equal(t, 1234, pag.TotalResults)
		assert.Equal(t, 50, pag.CalculatedPages)
	})

	t.Run("displayed total wins when larger", func(t *testing.T) {
		t.Parallel()
		pag := engine.ResolvePagination("137 results", "Page 1 of 40", 0)
		assert.Equal(t, 6, pag.CalculatedPages)
		assert.Equal(t, 40, pag.TotalPages)
	})

	t.Run("calculated total wins when displayed is capped", func(t *testing.T) {
		t.Parallel()
		pag := engine.ResolvePagination("2,500 results", "Page 1 of 40", 0)
		assert.Equal(t, 100, pag.CalculatedPages)
		assert.Equal(t, 100, pag.TotalPages)
	})

	t.Run("missing result count degrades to single page", func(t *testing.T) {
		t.Parallel()
		pag := engine.ResolvePagination("", "", 0)
		assert.Equal(t, 0, pag.TotalResults)
		assert.Equal(t, 1, pag.CalculatedPages)
		assert.Equal(t, 1, pag.TotalPages)
		assert.Equal(t, 1, pag.CurrentPage)
	})

	t.Run("offset parameter beats indicator for current page", func(t *testing.T) {
		t.Parallel()
		// The indicator claims page 1 but the offset says page 3.
		pag := engine.ResolvePagination("200 results", "Page 1 of 8", 50)
		assert.Equal(t, 3, pag.CurrentPage)
	})
}

func TestOffsetFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"present", "https://www.linkedin.com/jobs/search/?keywords=go&start=75", 75},
		{"absent", "https://www.linkedin.com/jobs/search/?keywords=go", 0},
		{"malformed value", "https://www.linkedin.com/jobs/search/?start=abc", 0},
		{"negative", "https://www.linkedin.com/jobs/search/?start=-25", 0},
		{"unparseable url", "::not a url::", 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, engine.OffsetFromURL(tt.url))
		})
	}
}

func TestOffsetURL(t *testing.T) {
	t.Parallel()

	got, err := engine.OffsetURL("https://www.linkedin.com/jobs/search/?keywords=go&start=0", 4)
	assert.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/jobs/search/?keywords=go&start=75", got)
}
