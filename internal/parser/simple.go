package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultName is the parser used when no --parser flag is given.
const DefaultName = "simple"

func init() {
	Register(DefaultName, func(keywords []string) Parser {
		return &SimpleParser{}
	})
}

// SimpleParser extracts all anchors and the page title from HTML source.
// It assigns no priorities. Anchors marked rel=nofollow are skipped, and
// a robots meta tag carrying noindex or nofollow suppresses the whole
// document.
type SimpleParser struct{}

// Parse extracts the title and links from text. Unparseable input yields
// no title and no links.
func (p *SimpleParser) Parse(text string) (*string, []Link) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, nil
	}

	if disallowed(doc) {
		return nil, nil
	}

	var title *string
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		title = &t
	}

	var links []Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if rel, _ := sel.Attr("rel"); strings.Contains(rel, "nofollow") {
			return
		}

		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		var text *string
		if t := strings.TrimSpace(sel.Text()); t != "" {
			text = &t
		}

		links = append(links, Link{URL: href, Text: text})
	})

	return title, links
}

// disallowed reports whether a robots meta tag forbids indexing or
// following this document.
func disallowed(doc *goquery.Document) bool {
	found := false
	doc.Find(`meta[name]`).Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		if !strings.EqualFold(name, "robots") {
			return
		}
		content, _ := sel.Attr("content")
		content = strings.ToLower(content)
		if strings.Contains(content, "noindex") || strings.Contains(content, "nofollow") {
			found = true
		}
	})

	return found
}
