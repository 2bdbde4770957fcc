package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/jobsift/config"
	"github.com/use-agent/jobsift/engine"
	"github.com/use-agent/jobsift/models"
	"github.com/use-agent/jobsift/store"
)

// fakeSite classifies every page the same way and serves no cards, which is
// all the command dispatch tests need.
type fakeSite struct {
	kind engine.PageKind
}

func (f *fakeSite) Navigate(ctx context.Context, url string) error      { return nil }
func (f *fakeSite) Location(ctx context.Context) string                 { return "" }
func (f *fakeSite) Classify(ctx context.Context) engine.PageKind        { return f.kind }
func (f *fakeSite) LoadAllCards(ctx context.Context) error              { return nil }
func (f *fakeSite) Cards(ctx context.Context) ([]string, error)         { return nil, nil }
func (f *fakeSite) OpenCard(ctx context.Context, i int) (string, error) { return "", nil }
func (f *fakeSite) DetailHTML(ctx context.Context) (string, error)      { return "", nil }
func (f *fakeSite) ResultsText(ctx context.Context) string              { return "" }
func (f *fakeSite) IndicatorText(ctx context.Context) string            { return "" }
func (f *fakeSite) Watch(ctx context.Context, onInsert func()) func()   { return func() {} }

func newTestRouter(t *testing.T, kind engine.PageKind) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	o := engine.New(&fakeSite{kind: kind}, st, config.ScrapeConfig{})

	r := gin.New()
	r.POST("/api/v1/command", Command(o, st, t.TempDir()))
	return r
}

func postCommand(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, models.CommandResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp models.CommandResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestCommandInvalidBody(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	w, resp := postCommand(t, r, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, models.ErrCodeInvalidInput, resp.Detail.Code)
}

func TestCommandUnknownAction(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	w, resp := postCommand(t, r, `{"action":"DO_SOMETHING"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Unknown action", resp.Error)
}

func TestStartScrapingRequiresURL(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	w, resp := postCommand(t, r, `{"action":"START_SCRAPING"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, models.ErrCodeInvalidInput, resp.Detail.Code)
}

func TestStartScrapingUnrecognizedPage(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	w, resp := postCommand(t, r,
		`{"action":"START_SCRAPING","url":"https://www.linkedin.com/feed/"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Notice)
	assert.Empty(t, resp.Error)
	require.NotNil(t, resp.Detail)
	assert.Equal(t, models.ErrCodeClassify, resp.Detail.Code)
}

func TestStopScrapingIdle(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	w, resp := postCommand(t, r, `{"action":"STOP_SCRAPING"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "no active scrape run", resp.Notice)
}

func TestSaveAndGetAllJobs(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	const save = `{"action":"SAVE_JOBS","jobs":[
		{"title":"Backend Engineer","company":"Acme","location":"Berlin, Germany",
		 "description":"","url":"https://example.com/jobs/view/1",
		 "scrapedAt":"2025-06-01T12:00:00Z"},
		{"title":"Data Engineer","company":"Globex","location":"Remote",
		 "description":"","url":"https://example.com/jobs/view/2",
		 "scrapedAt":"2025-06-01T12:00:00Z"}
	]}`
	w, resp := postCommand(t, r, save)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.JobCount)

	// Saving the same batch again is a no-op.
	_, resp = postCommand(t, r, save)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.JobCount)

	w, resp = postCommand(t, r, `{"action":"GET_ALL_JOBS"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	require.Len(t, resp.Jobs, 2)
	assert.Equal(t, "Backend Engineer", resp.Jobs[0].Title)
}

func TestClearJobs(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	_, resp := postCommand(t, r, `{"action":"SAVE_JOBS","jobs":[
		{"title":"Backend Engineer","company":"Acme","location":"Berlin, Germany",
		 "description":"","url":"https://example.com/jobs/view/1",
		 "scrapedAt":"2025-06-01T12:00:00Z"}]}`)
	require.True(t, resp.Success)

	_, resp = postCommand(t, r, `{"action":"CLEAR_JOBS"}`)
	assert.True(t, resp.Success)

	_, resp = postCommand(t, r, `{"action":"GET_ALL_JOBS"}`)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Jobs)
	assert.Zero(t, resp.JobCount)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	_, resp := postCommand(t, r, `{"action":"SAVE_JOBS","jobs":[
		{"title":"Backend Engineer","company":"Acme","location":"Berlin, Germany",
		 "description":"","url":"https://example.com/jobs/view/1",
		 "scrapedAt":"2025-06-01T12:00:00Z"}]}`)
	require.True(t, resp.Success)

	w, resp := postCommand(t, r, `{"action":"EXPORT_CSV"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.JobCount)
	assert.Contains(t, resp.Notice, "linkedin-jobs-")
	assert.Contains(t, resp.Notice, ".csv")
}

func TestGetScrapedJobsIdle(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, engine.PageUnrecognized)

	w, resp := postCommand(t, r, `{"action":"GET_SCRAPED_JOBS"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Jobs)
}
