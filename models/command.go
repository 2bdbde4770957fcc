package models

// Command action names accepted by POST /api/v1/command.
const (
	ActionStartScraping  = "START_SCRAPING"
	ActionStopScraping   = "STOP_SCRAPING"
	ActionGetScrapedJobs = "GET_SCRAPED_JOBS"
	ActionSaveJobs       = "SAVE_JOBS"
	ActionGetAllJobs     = "GET_ALL_JOBS"
	ActionExportCSV      = "EXPORT_CSV"
	ActionClearJobs      = "CLEAR_JOBS"
)

// CommandRequest is the payload for POST /api/v1/command.
type CommandRequest struct {
	// Action selects the operation. Required.
	Action string `json:"action" binding:"required"`

	// URL is the listing or detail page to scrape. Required for
	// START_SCRAPING, ignored otherwise.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// Jobs is the batch to merge. Used by SAVE_JOBS only.
	Jobs []JobRecord `json:"jobs,omitempty"`
}

// CommandResponse is the uniform response envelope for all command actions.
type CommandResponse struct {
	Success  bool         `json:"success"`
	Error    string       `json:"error,omitempty"`
	Jobs     []JobRecord  `json:"jobs,omitempty"`
	JobCount int          `json:"jobCount,omitempty"`
	Notice   string       `json:"notice,omitempty"`
	RunID    string       `json:"runId,omitempty"`
	Detail   *ErrorDetail `json:"detail,omitempty"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	RunActive   bool   `json:"run_active"`
	RunRecords  int    `json:"run_records"`
	StoredCount int    `json:"stored_count"`
	Version     string `json:"version"`
}
