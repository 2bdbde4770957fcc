package extract

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// chain is an ordered selector fallback: probes are tried in order and the
// first one that matches a node wins. Chains are compiled once at package
// init; a bad selector string is a programming error, hence the panic.
type chain []cascadia.Sel

func mustChain(selectors ...string) chain {
	c := make(chain, 0, len(selectors))
	for _, s := range selectors {
		sel, err := cascadia.Parse(s)
		if err != nil {
			panic("extract: bad selector " + s + ": " + err.Error())
		}
		c = append(c, sel)
	}
	return c
}

// first returns the first node any probe in the chain matches, or nil.
func (c chain) first(root *html.Node) *html.Node {
	for _, sel := range c {
		if n := cascadia.Query(root, sel); n != nil {
			return n
		}
	}
	return nil
}

// text returns the collapsed text of the first matching node, or "".
func (c chain) text(root *html.Node) string {
	n := c.first(root)
	if n == nil {
		return ""
	}
	return collapseSpace(nodeText(n))
}

// attr returns the named attribute of the first matching node, or "".
func (c chain) attr(root *html.Node, name string) string {
	n := c.first(root)
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// nodeText concatenates all text descendants of n.
func nodeText(n *html.Node) string {
	var buf bytes.Buffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Card-path selector fallback chains. The strings themselves are a
// site-coupling detail; the ordering is the extraction policy.
var (
	cardTitleChain = mustChain(
		".job-card-list__title--link span[aria-hidden=true]",
		".job-card-list__title",
		".job-card-container__link",
		".artdeco-entity-lockup__title",
	)
	cardCompanyChain = mustChain(
		".job-card-container__primary-description",
		".job-card-container__company-name",
		".artdeco-entity-lockup__subtitle",
	)
	cardLocationChain = mustChain(
		".job-card-container__metadata-item",
		".job-card-container__metadata-wrapper li",
		".artdeco-entity-lockup__caption",
	)
	cardPostedChain = mustChain(
		"time",
		".job-card-container__listed-time",
	)
	cardLinkChain = mustChain(
		"a.job-card-container__link",
		"a.job-card-list__title--link",
		"a[href*='/jobs/view/']",
	)
)

// Detail-path chains, used both for standalone detail pages and for the
// in-listing detail panel after a card click.
var (
	detailTitleChain = mustChain(
		".job-details-jobs-unified-top-card__job-title h1",
		".jobs-unified-top-card__job-title",
		"h1.top-card-layout__title",
		"h1",
	)
	detailCompanyChain = mustChain(
		".job-details-jobs-unified-top-card__company-name a",
		".job-details-jobs-unified-top-card__company-name",
		".jobs-unified-top-card__company-name",
		"a.topcard__org-name-link",
	)
	detailCaptionChain = mustChain(
		".job-details-jobs-unified-top-card__primary-description-container",
		".job-details-jobs-unified-top-card__tertiary-description-container",
		".jobs-unified-top-card__primary-description",
	)
	detailDescriptionChain = mustChain(
		".jobs-description__content",
		"#job-details",
		".jobs-box__html-content",
		".description__text",
	)
)
