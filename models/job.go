package models

import "time"

// JobRecord is one scraped listing. The required fields (Title, Company,
// Location, Description, URL, ScrapedAt) are filled by the card extraction
// path; the rest are optional and populated by detail enrichment. A record
// is never mutated after the orchestrator accepts it.
type JobRecord struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ScrapedAt   time.Time `json:"scrapedAt"`

	// Enrichment fields, absent unless the detail view yielded them.
	Salary             string `json:"salary,omitempty"`
	JobType            string `json:"jobType,omitempty"`
	Experience         string `json:"experience,omitempty"`
	WorkplaceType      string `json:"workplaceType,omitempty"`
	ApplicantCount     string `json:"applicantCount,omitempty"`
	CompanySize        string `json:"companySize,omitempty"`
	LinkedInEmployees  string `json:"linkedinEmployees,omitempty"`
	Industry           string `json:"industry,omitempty"`
	Followers          string `json:"followers,omitempty"`
	HiringInsights     string `json:"hiringInsights,omitempty"`
	Skills             string `json:"skills,omitempty"`
	CompanyDescription string `json:"companyDescription,omitempty"`
	CompanyCommitments string `json:"companyCommitments,omitempty"`

	// PostedDate is the raw relative string as rendered ("3 days ago").
	// PostedDateISO is the normalized absolute timestamp, zero when the
	// relative string could not be interpreted.
	PostedDate    string    `json:"postedDate,omitempty"`
	PostedDateISO time.Time `json:"postedDateISO,omitzero"`
}

// JobKey is the identity of a listing. Two records with equal keys are the
// same listing regardless of any other field differences.
type JobKey struct {
	Title   string
	Company string
	URL     string
}

// Key returns the record's identity key.
func (r *JobRecord) Key() JobKey {
	return JobKey{Title: r.Title, Company: r.Company, URL: r.URL}
}

// PaginationState is the reconciled view of the listing's pagination signals.
// It is recomputed fresh on every page because the rendered signals can drift
// between reads.
type PaginationState struct {
	CurrentPage     int `json:"currentPage"`
	TotalPages      int `json:"totalPages"`
	TotalResults    int `json:"totalResults"`
	CalculatedPages int `json:"calculatedPages"`
}
