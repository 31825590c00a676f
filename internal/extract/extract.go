// Package extract reads connection data out of rendered LinkedIn HTML.
//
// The browser only hands over page markup; every lookup happens here on a
// goquery document so it can be exercised without a browser.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/go-scripts/connections/internal/types"
)

// ErrMissingElement is returned when a required element is not on the page.
var ErrMissingElement = errors.New("required element not found")

// Parse builds a goquery document from page HTML.
func Parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Lookup descends through chain, taking the first match at every step.
// It reports false as soon as a step matches nothing.
func Lookup(sel *goquery.Selection, chain ...string) (string, bool) {
	cur := sel
	for _, css := range chain {
		cur = cur.Find(css).First()
		if cur.Length() == 0 {
			return "", false
		}
	}
	return normalizeSpace(cur.Text()), true
}

// Contact reads the five optional contact fields. Absent fields stay empty.
func Contact(doc *goquery.Document) types.Contact {
	var c types.Contact

	fields := []struct {
		dst   *string
		chain []string
	}{
		{&c.Website, websiteChain},
		{&c.Phone, phoneChain},
		{&c.Address, addressChain},
		{&c.Email, emailChain},
		{&c.Twitter, twitterChain},
	}
	for _, f := range fields {
		if v, ok := Lookup(doc.Selection, f.chain...); ok {
			*f.dst = v
		}
	}

	return c
}

// Profile reads the top card. The name is required; headline and location
// are optional.
func Profile(doc *goquery.Document) (types.Profile, error) {
	var p types.Profile

	name, ok := Lookup(doc.Selection, SelectorName)
	if !ok {
		return p, fmt.Errorf("%w: %s", ErrMissingElement, SelectorName)
	}
	p.Name = name

	if v, ok := Lookup(doc.Selection, SelectorHeadline); ok {
		p.Headline = v
	}
	if v, ok := Lookup(doc.Selection, SelectorLocation); ok {
		p.Location = v
	}

	return p, nil
}

// Links returns the href of every connection card in document order,
// resolved against pageURL. Duplicates are kept; anchors without an href
// are skipped.
func Links(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}

	links := []string{}
	doc.Find(SelectorConnectionLink).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		links = append(links, resolve(base, href))
	})
	return links
}

func resolve(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// normalizeSpace trims s and collapses whitespace runs into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
