// Package extract turns rendered page fragments into candidate job records.
// Everything here is a pure function of the element tree and the caller's
// clock: no browser handles, no I/O, logging only.
package extract

import (
	"log/slog"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/use-agent/jobsift/models"
)

// maxTitleLen bounds stored title length in runes.
const maxTitleLen = 100

// FromCard parses one listing-card fragment into a basic record.
//
// URL preference order: an explicit detail link on the card, then an
// identifier derived from the card's data attribute, then the listing page's
// own URL as the last resort. A record lacking a non-empty title or company
// after cleaning is rejected (nil) — that is a hard validation gate.
func FromCard(cardHTML, pageURL string, now time.Time) *models.JobRecord {
	root, err := html.Parse(strings.NewReader(cardHTML))
	if err != nil {
		slog.Debug("card fragment did not parse", "error", err)
		return nil
	}

	title := CleanTitle(cardTitleChain.text(root))
	company := collapseSpace(cardCompanyChain.text(root))
	if title == "" || company == "" {
		slog.Debug("card rejected: missing title or company")
		return nil
	}

	rec := &models.JobRecord{
		Title:     title,
		Company:   company,
		Location:  cardLocationChain.text(root),
		URL:       cardURL(root, pageURL),
		ScrapedAt: now,
	}

	if posted := cardPostedChain.text(root); posted != "" {
		rec.PostedDate = posted
		if ts, ok := RelativeTime(posted, now); ok {
			rec.PostedDateISO = ts
		}
	}
	return rec
}

// cardURL resolves the card's detail URL with the fallback order documented
// on FromCard.
func cardURL(root *html.Node, pageURL string) string {
	if href := cardLinkChain.attr(root, "href"); href != "" {
		return absoluteURL(href, pageURL)
	}
	if id := dataJobID(root); id != "" {
		return "https://www.linkedin.com/jobs/view/" + id
	}
	return pageURL
}

// dataJobID walks the fragment for a data-job-id / data-occludable-job-id
// attribute, the site's stable card identifier.
func dataJobID(root *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "data-job-id" || a.Key == "data-occludable-job-id" {
					found = strings.TrimSpace(a.Val)
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func absoluteURL(href, pageURL string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return stripQuery(href)
	}
	if strings.HasPrefix(href, "/") {
		return "https://www.linkedin.com" + stripQuery(href)
	}
	return pageURL
}

// stripQuery drops tracking parameters so equal listings compare equal.
func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

// FromDetail parses a standalone detail-page tree into a terminal record.
// The same title/company validation gate applies.
func FromDetail(pageHTML, pageURL string, now time.Time) *models.JobRecord {
	root, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		slog.Debug("detail page did not parse", "error", err)
		return nil
	}

	title := CleanTitle(detailTitleChain.text(root))
	company := collapseSpace(detailCompanyChain.text(root))
	if title == "" || company == "" {
		slog.Debug("detail page rejected: missing title or company")
		return nil
	}

	rec := &models.JobRecord{
		Title:     title,
		Company:   company,
		URL:       stripQuery(pageURL),
		ScrapedAt: now,
	}

	caption := ClassifyCaption(splitCaption(detailCaptionChain.text(root)))
	rec.Location = caption.Location
	rec.ApplicantCount = caption.ApplicantCount
	if caption.PostedDate != "" {
		rec.PostedDate = caption.PostedDate
		if ts, ok := RelativeTime(caption.PostedDate, now); ok {
			rec.PostedDateISO = ts
		}
	}

	Fields(pageHTML).Apply(rec)
	return rec
}
