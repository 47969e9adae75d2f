// Package extract turns raw scraped payloads into cleaned, classified
// blocklist entries.
package extract

import (
	"regexp"
	"strings"
)

var (
	zeroWidthRe  = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`)
	schemeRe     = regexp.MustCompile(`(?i)^https?://`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// rawCutset is trimmed from raw field values before and after splitting.
const rawCutset = " \t\v\n\r\f."

// CleanURL removes zero-width spaces, surrounding whitespace, trailing
// slashes, and http/https scheme prefixes from a URL.
func CleanURL(url string) string {
	cleaned := zeroWidthRe.ReplaceAllString(url, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, "/")
	cleaned = schemeRe.ReplaceAllString(cleaned, "")
	return cleaned
}

// SplitRawField breaks a scraped field value into candidate URLs.
// Reported entries sometimes hold several URLs separated by arbitrary
// whitespace; empties and bare "www" artifacts are dropped.
func SplitRawField(raw string) []string {
	trimmed := strings.Trim(raw, rawCutset)
	collapsed := whitespaceRe.ReplaceAllString(trimmed, " ")

	var urls []string
	for _, token := range strings.Split(collapsed, " ") {
		cleaned := CleanURL(strings.Trim(token, rawCutset))
		if cleaned == "" || cleaned == "www" {
			continue
		}
		urls = append(urls, cleaned)
	}
	return urls
}
