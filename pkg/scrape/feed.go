package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/scamwatch/scamfeed/pkg/extract"
)

// DefaultFeedPathPrefixes are the path prefixes under which the site
// publishes individual report pages linked from the listing page.
var DefaultFeedPathPrefixes = []string{"/post/", "/scam-websites"}

// FeedURLs extracts same-host links under the given path prefixes from a
// fetched page, resolving relative hrefs against pageURL. Duplicates and
// the page itself are dropped.
func FeedURLs(pageURL string, html []byte, pathPrefixes []string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	seen := make(map[string]struct{})
	var feeds []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""

		if resolved.Host != base.Host {
			return
		}
		if !matchesPrefix(resolved.Path, pathPrefixes) {
			return
		}

		full := resolved.String()
		if full == pageURL {
			return
		}
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}
		feeds = append(feeds, full)
	})

	return feeds, nil
}

// PageURLs extracts candidate reported URLs from the visible text and
// links of a fetched page. Tokens without a dot cannot be hosts and are
// dropped early; real classification happens downstream.
func PageURLs(html []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	seen := make(map[string]struct{})
	var urls []string
	add := func(raw string) {
		for _, candidate := range extract.SplitRawField(raw) {
			if !strings.Contains(candidate, ".") {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			urls = append(urls, candidate)
		}
	}

	doc.Find("p, li, td").Each(func(_ int, sel *goquery.Selection) {
		add(sel.Text())
	})

	return urls, nil
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
