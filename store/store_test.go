package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/jobsift/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jobsift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(title, company, url string) models.JobRecord {
	return models.JobRecord{
		Title:     title,
		Company:   company,
		Location:  "Berlin, Germany",
		URL:       url,
		ScrapedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStoreMerge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	total, err := s.Merge(ctx, []models.JobRecord{
		record("Backend Engineer", "Acme", "https://example.com/jobs/view/1"),
		record("Data Engineer", "Globex", "https://example.com/jobs/view/2"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// Overlapping batch: only the new record lands.
	total, err = s.Merge(ctx, []models.JobRecord{
		record("Backend Engineer", "Acme", "https://example.com/jobs/view/1"),
		record("SRE", "Initech", "https://example.com/jobs/view/3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	jobs, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	// Arrival order survives the merge.
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, "Data Engineer", jobs[1].Title)
	assert.Equal(t, "SRE", jobs[2].Title)
}

func TestStoreMergeFirstArrivalWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	first := record("Backend Engineer", "Acme", "https://example.com/jobs/view/1")
	first.Location = "Berlin, Germany"
	_, err := s.Merge(ctx, []models.JobRecord{first})
	require.NoError(t, err)

	// Same identity key, different payload: the stored record is unchanged.
	second := first
	second.Location = "Munich, Germany"
	second.Salary = "€90,000/yr"
	total, err := s.Merge(ctx, []models.JobRecord{second})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	jobs, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Berlin, Germany", jobs[0].Location)
	assert.Empty(t, jobs[0].Salary)
}

func TestStoreMergeIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	batch := []models.JobRecord{
		record("Backend Engineer", "Acme", "https://example.com/jobs/view/1"),
		record("Data Engineer", "Globex", "https://example.com/jobs/view/2"),
	}
	for i := 0; i < 3; i++ {
		total, err := s.Merge(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	}
}

func TestStoreClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Merge(ctx, []models.JobRecord{
		record("Backend Engineer", "Acme", "https://example.com/jobs/view/1"),
	})
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	jobs, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestStoreRoundTripsEnrichment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	j := record("Backend Engineer", "Acme", "https://example.com/jobs/view/1")
	j.Description = "Build services."
	j.JobType = "Full-time"
	j.WorkplaceType = "Remote"
	j.Skills = "Go, SQL"
	j.PostedDate = "3 days ago"
	j.PostedDateISO = time.Date(2025, 5, 29, 12, 0, 0, 0, time.UTC)

	_, err := s.Merge(ctx, []models.JobRecord{j})
	require.NoError(t, err)

	jobs, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, j, jobs[0])
}
