package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// firstImageSrc digs the first img src out of an HTML fragment. Returns ""
// when the fragment has no image or does not parse.
func firstImageSrc(fragment string) string {
	if fragment == "" || !strings.Contains(fragment, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}
