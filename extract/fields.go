package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/jobsift/models"
)

// DetailFields is the enriched superset of fields a detail view can yield.
// Every field is independently optional; an empty string means the probe
// found nothing.
type DetailFields struct {
	Description        string
	Location           string
	PostedDate         string
	ApplicantCount     string
	Salary             string
	JobType            string
	Experience         string
	WorkplaceType      string
	CompanySize        string
	LinkedInEmployees  string
	Industry           string
	Followers          string
	HiringInsights     string
	Skills             string
	CompanyDescription string
	CompanyCommitments string
}

// Fields extracts enrichment fields from detail panel HTML. Probes never
// fail the extraction: a missing field is simply absent.
func Fields(detailHTML string) DetailFields {
	var f DetailFields

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		return f
	}

	f.Description = firstText(doc,
		".jobs-description__content",
		"#job-details",
		".jobs-box__html-content",
		".description__text",
	)

	caption := ClassifyCaption(splitCaption(firstText(doc,
		".job-details-jobs-unified-top-card__primary-description-container",
		".job-details-jobs-unified-top-card__tertiary-description-container",
		".jobs-unified-top-card__primary-description",
	)))
	f.Location = caption.Location
	f.PostedDate = caption.PostedDate
	f.ApplicantCount = caption.ApplicantCount

	// Insight pills under the top card: each is a salary, a job type, a
	// workplace type, or an experience level. Classified by marker, first
	// match per category wins.
	doc.Find(".job-details-jobs-unified-top-card__job-insight, .jobs-unified-top-card__job-insight, .job-details-preferences-and-skills__pill").
		Each(func(_ int, s *goquery.Selection) {
			classifyInsight(collapseSpace(s.Text()), &f)
		})

	// Company panel.
	doc.Find(".jobs-company__inline-information, .jobs-company__box .t-black--light").
		Each(func(_ int, s *goquery.Selection) {
			text := collapseSpace(s.Text())
			lower := strings.ToLower(text)
			switch {
			case strings.Contains(lower, "on linkedin"):
				if f.LinkedInEmployees == "" {
					f.LinkedInEmployees = text
				}
			case strings.Contains(lower, "employees"):
				if f.CompanySize == "" {
					f.CompanySize = text
				}
			case strings.Contains(lower, "followers"):
				if f.Followers == "" {
					f.Followers = text
				}
			}
		})
	f.Industry = firstText(doc,
		".jobs-company__industry",
		".t-14.mt5 .t-black--light",
	)
	f.CompanyDescription = firstText(doc,
		".jobs-company__company-description",
	)
	f.CompanyCommitments = firstText(doc,
		".jobs-company__commitments",
	)

	f.HiringInsights = firstText(doc,
		".jobs-premium-applicant-insights",
		".jobs-details-premium-insight",
	)

	var skills []string
	doc.Find(".job-details-how-you-match__skills-item-subtitle, .job-details-how-you-match__skills-section-descriptive-skill").
		Each(func(_ int, s *goquery.Selection) {
			if t := collapseSpace(s.Text()); t != "" {
				skills = append(skills, t)
			}
		})
	f.Skills = strings.Join(skills, ", ")

	return f
}

// classifyInsight routes one insight pill's text to the right field.
func classifyInsight(text string, f *DetailFields) {
	lower := strings.ToLower(text)
	switch {
	case strings.ContainsAny(text, "$€£") || strings.Contains(lower, "/yr") || strings.Contains(lower, "/hr"):
		if f.Salary == "" {
			f.Salary = text
		}
	case strings.Contains(lower, "remote") || strings.Contains(lower, "hybrid") || strings.Contains(lower, "on-site"):
		if f.WorkplaceType == "" {
			f.WorkplaceType = text
		}
	case strings.Contains(lower, "full-time") || strings.Contains(lower, "part-time") ||
		strings.Contains(lower, "contract") || strings.Contains(lower, "internship") ||
		strings.Contains(lower, "temporary"):
		if f.JobType == "" {
			f.JobType = text
		}
	case strings.Contains(lower, "level") || strings.Contains(lower, "entry") ||
		strings.Contains(lower, "associate") || strings.Contains(lower, "director") ||
		strings.Contains(lower, "executive"):
		if f.Experience == "" {
			f.Experience = text
		}
	}
}

// Apply promotes a basic record in place. Only empty required fields and
// absent optional fields are filled; enrichment never overwrites what the
// card already established.
func (f DetailFields) Apply(r *models.JobRecord) {
	setIfEmpty(&r.Description, f.Description)
	setIfEmpty(&r.Location, f.Location)
	setIfEmpty(&r.ApplicantCount, f.ApplicantCount)
	setIfEmpty(&r.Salary, f.Salary)
	setIfEmpty(&r.JobType, f.JobType)
	setIfEmpty(&r.Experience, f.Experience)
	setIfEmpty(&r.WorkplaceType, f.WorkplaceType)
	setIfEmpty(&r.CompanySize, f.CompanySize)
	setIfEmpty(&r.LinkedInEmployees, f.LinkedInEmployees)
	setIfEmpty(&r.Industry, f.Industry)
	setIfEmpty(&r.Followers, f.Followers)
	setIfEmpty(&r.HiringInsights, f.HiringInsights)
	setIfEmpty(&r.Skills, f.Skills)
	setIfEmpty(&r.CompanyDescription, f.CompanyDescription)
	setIfEmpty(&r.CompanyCommitments, f.CompanyCommitments)
	if r.PostedDate == "" && f.PostedDate != "" {
		r.PostedDate = f.PostedDate
		if ts, ok := RelativeTime(f.PostedDate, r.ScrapedAt); ok {
			r.PostedDateISO = ts
		}
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// firstText returns the collapsed text of the first selector that matches.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if t := collapseSpace(s.Text()); t != "" {
				return t
			}
		}
	}
	return ""
}
