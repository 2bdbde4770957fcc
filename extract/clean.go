package extract

import "strings"

// verificationMarkers are trailing badges the site appends to titles.
var verificationMarkers = []string{
	"with verification",
	"verified",
}

// CleanTitle collapses whitespace, strips trailing verification markers, and
// truncates to the storage bound.
func CleanTitle(title string) string {
	t := collapseSpace(title)
	for _, marker := range verificationMarkers {
		if n := len(t) - len(marker); n >= 0 && strings.EqualFold(t[n:], marker) {
			t = strings.TrimSpace(t[:n])
		}
	}
	// The site sometimes duplicates the title text inside the link node;
	// "X X" collapses back to "X".
	if half := len(t) / 2; half > 0 && len(t)%2 == 1 {
		if first, second := t[:half], t[half+1:]; first == second && t[half] == ' ' {
			t = first
		}
	}
	if runes := []rune(t); len(runes) > maxTitleLen {
		t = string(runes[:maxTitleLen])
	}
	return t
}

// Caption is the tri-state classification of a detail caption line. A single
// "·"-separated fragment is a location OR a posted date OR an applicant
// count, distinguished by substring markers.
type Caption struct {
	Location       string
	PostedDate     string
	ApplicantCount string
}

// splitCaption breaks the rendered caption text on the site's interpunct
// separator.
func splitCaption(text string) []string {
	parts := strings.Split(text, "·")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ClassifyCaption assigns each fragment to the first category whose marker
// matches; the first fragment claiming a category keeps it.
func ClassifyCaption(fragments []string) Caption {
	var c Caption
	for _, frag := range fragments {
		lower := strings.ToLower(frag)
		switch {
		case strings.Contains(lower, "applicant"):
			if c.ApplicantCount == "" {
				c.ApplicantCount = frag
			}
		case strings.Contains(lower, "ago") || strings.Contains(lower, "posted"):
			if c.PostedDate == "" {
				c.PostedDate = frag
			}
		default:
			if c.Location == "" {
				c.Location = frag
			}
		}
	}
	return c
}
