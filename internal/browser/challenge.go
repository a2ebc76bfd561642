package browser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// challengeTitles are titles of Cloudflare interstitial and block pages.
var challengeTitles = []string{
	strings.ToLower(ChallengeTitle),
	"attention required! | cloudflare",
	"access denied | cloudflare",
}

// challengeSelectors match markup only present on Cloudflare challenge pages.
const challengeSelectors = "#challenge-form, #challenge-running, #cf-challenge-running, .cf-browser-verification, #cf-error-details"

// PageTitle returns the trimmed text of the first <title> in html.
func PageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return titleOf(doc)
}

func titleOf(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// LooksLikeChallenge reports whether html is a Cloudflare challenge or block
// page rather than the content that was asked for.
func LooksLikeChallenge(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	title := strings.ToLower(titleOf(doc))
	for _, t := range challengeTitles {
		if title == t {
			return true
		}
	}
	return doc.Find(challengeSelectors).Length() > 0
}
