package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/jobsift/models"
)

// csvHeader is the export's column order. Consumers key on these names;
// the order is part of the file format.
var csvHeader = []string{
	"Title",
	"Company",
	"Location",
	"Description",
	"Salary",
	"Job Type",
	"Workplace Type",
	"Experience",
	"Applicant Count",
	"Company Size",
	"LinkedIn Employees",
	"Industry",
	"Followers",
	"Hiring Insights",
	"Skills",
	"Company Description",
	"Company Commitments",
	"URL",
	"Posted Date",
	"Posted Date ISO",
	"Scraped At",
}

// WriteCSV writes the header and one row per record. encoding/csv handles
// quoting for embedded commas, quotes, and newlines.
func WriteCSV(w io.Writer, jobs []models.JobRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range jobs {
		if err := cw.Write(csvRow(&jobs[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(j *models.JobRecord) []string {
	postedISO := ""
	if !j.PostedDateISO.IsZero() {
		postedISO = j.PostedDateISO.UTC().Format(time.RFC3339)
	}
	return []string{
		j.Title,
		j.Company,
		j.Location,
		j.Description,
		j.Salary,
		j.JobType,
		j.WorkplaceType,
		j.Experience,
		j.ApplicantCount,
		j.CompanySize,
		j.LinkedInEmployees,
		j.Industry,
		j.Followers,
		j.HiringInsights,
		j.Skills,
		j.CompanyDescription,
		j.CompanyCommitments,
		j.URL,
		j.PostedDate,
		postedISO,
		j.ScrapedAt.UTC().Format(time.RFC3339),
	}
}

// ExportFilename is "linkedin-jobs-<date>.csv" with the date in ISO form.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("linkedin-jobs-%s.csv", now.UTC().Format("2006-01-02"))
}

// Export writes every persisted record to a dated CSV file under dir and
// returns the file's path.
func (s *Store) Export(ctx context.Context, dir string, now time.Time) (string, error) {
	jobs, err := s.All(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, ExportFilename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeExport, "failed to create export file", err)
	}

	if err := WriteCSV(f, jobs); err != nil {
		_ = f.Close()
		return "", models.NewScrapeError(models.ErrCodeExport, "failed to write export file", err)
	}
	if err := f.Close(); err != nil {
		return "", models.NewScrapeError(models.ErrCodeExport, "failed to finalize export file", err)
	}
	return path, nil
}
