package extract

import (
	"encoding/json"
	"fmt"
)

// APIItem is a single reported entry in a collection query response.
type APIItem struct {
	URL string `json:"url"`
}

// APIBody is the relevant slice of a collection query response page.
type APIBody struct {
	TotalResults int       `json:"totalResults"`
	Items        []APIItem `json:"items"`
}

// ParseAPIBody decodes one query response page.
func ParseAPIBody(body []byte) (*APIBody, error) {
	var page APIBody
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode api body: %w", err)
	}
	return &page, nil
}

// URLsFromAPIBodies collects cleaned candidate URLs from a set of query
// response pages. Pages that fail to decode are skipped; entries without
// a url field contribute nothing.
func URLsFromAPIBodies(bodies [][]byte) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, body := range bodies {
		page, err := ParseAPIBody(body)
		if err != nil {
			continue
		}
		for _, item := range page.Items {
			for _, url := range SplitRawField(item.URL) {
				if _, ok := seen[url]; ok {
					continue
				}
				seen[url] = struct{}{}
				urls = append(urls, url)
			}
		}
	}
	return urls
}
