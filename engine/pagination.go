package engine

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/jobsift/models"
)

// PageSize is the site's fixed listing page size.
const PageSize = 25

var (
	resultsPattern   = regexp.MustCompile(`([\d,.]+)\+?\s*results?`)
	indicatorPattern = regexp.MustCompile(`(?i)page\s+(\d+)\s+of\s+([\d,]+)`)
)

// ResolvePagination reconciles the listing's pagination signals into a single
// consistent view. It is recomputed fresh on every page because the rendered
// signals drift between reads.
//
// The offset query parameter is authoritative for the current page: the
// rendered indicator can be stale mid-transition. For the total, the max of
// the calculated and displayed values is taken deliberately — the site caps
// the displayed total below the true calculated one. Undercounting pages must
// never happen; overcounting is self-correcting because a zero-yield page
// trips the low-yield abort.
func ResolvePagination(resultsText, indicatorText string, offset int) models.PaginationState {
	totalResults := parseResultCount(resultsText)

	calculated := 1
	if totalResults > 0 {
		calculated = (totalResults + PageSize - 1) / PageSize
	}

	displayed := parseDisplayedTotal(indicatorText)

	total := calculated
	if displayed > total {
		total = displayed
	}

	return models.PaginationState{
		CurrentPage:     offset/PageSize + 1,
		TotalPages:      total,
		TotalResults:    totalResults,
		CalculatedPages: calculated,
	}
}

// OffsetFromURL reads the page-offset query parameter ("start") from the
// current location. Absent or malformed reads as offset 0.
func OffsetFromURL(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(u.Query().Get("start"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// OffsetURL rewrites the location's offset parameter for the given page.
func OffsetURL(rawURL string, page int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("start", strconv.Itoa((page-1)*PageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseResultCount reads "1,234 results" style text. Missing text degrades
// to 0, which callers treat as a single-page run.
func parseResultCount(text string) int {
	m := resultsPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	digits := strings.NewReplacer(",", "", ".", "").Replace(m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// parseDisplayedTotal reads the Y out of "Page X of Y". The X is ignored on
// purpose; the offset parameter is the authority for the current page.
func parseDisplayedTotal(text string) int {
	m := indicatorPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return 0
	}
	return n
}
