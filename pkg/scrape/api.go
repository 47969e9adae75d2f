// Package scrape navigates the scam-reporting site: it derives endpoint
// sets for the batch fetcher from the collection API and from static
// pages with their feeds, and assembles raw reported URLs.
package scrape

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the production site.
	DefaultBaseURL = "https://www.globalantiscam.org"

	// apiPath is the collection query endpoint on the site platform.
	apiPath = "/_api/cloud-data/v1/wix-data/collections/query"

	// CollectionName holds the reported scam entries.
	CollectionName = "scamcompanies"

	// PageLimit is the server-side maximum page size.
	PageLimit = 1000
)

// APIEndpoint builds the collection query URL for one datapoint offset.
func APIEndpoint(baseURL string, offset int) string {
	q := url.Values{}
	q.Set("collectionName", CollectionName)
	q.Set("sort", "url")
	q.Set("order", "ASC")
	q.Set("limit", strconv.Itoa(PageLimit))
	q.Set("offset", strconv.Itoa(offset))
	return strings.TrimRight(baseURL, "/") + apiPath + "?" + q.Encode()
}

// OffsetEndpoints derives the endpoints for every page after the first
// from the first page's totalResults. With limit 1000 and 2500 results
// the remaining offsets are 1000 and 2000.
func OffsetEndpoints(baseURL string, totalResults int) []string {
	numOffsets := totalResults / PageLimit
	endpoints := make([]string, 0, numOffsets)
	for i := 1; i <= numOffsets; i++ {
		endpoints = append(endpoints, APIEndpoint(baseURL, i*PageLimit))
	}
	return endpoints
}
