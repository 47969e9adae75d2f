package extract

import (
	"net/netip"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Classification partitions cleaned URLs into blocklist categories.
// URLs keeps the full cleaned entry (host plus any path), FQDNs the bare
// hostnames, IPs the bare IPv4 addresses.
type Classification struct {
	URLs  []string
	FQDNs []string
	IPs   []string
}

// Empty reports whether nothing classifiable was found.
func (c Classification) Empty() bool {
	return len(c.URLs) == 0 && len(c.IPs) == 0
}

// Classify splits cleaned URLs into IPv4 addresses, registrable FQDNs,
// and full URL entries. Hosts that are neither a valid address nor carry
// a recognized public suffix are skipped.
func Classify(urls []string) Classification {
	urlSet := make(map[string]struct{})
	fqdnSet := make(map[string]struct{})
	ipSet := make(map[string]struct{})

	for _, url := range urls {
		host := hostOf(url)
		if host == "" {
			continue
		}

		if addr, err := netip.ParseAddr(host); err == nil {
			if addr.Is4() {
				ipSet[host] = struct{}{}
			}
			continue
		}

		if isRegistrable(host) {
			urlSet[url] = struct{}{}
			fqdnSet[host] = struct{}{}
		}
	}

	return Classification{
		URLs:  sortedKeys(urlSet),
		FQDNs: sortedKeys(fqdnSet),
		IPs:   sortedIPs(ipSet),
	}
}

// hostOf extracts the hostname part of a scheme-less URL entry.
func hostOf(url string) string {
	host := url
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, '@'); i >= 0 {
		host = host[i+1:]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(strings.Trim(host, "."))
}

// isRegistrable reports whether host ends in a known ICANN suffix with at
// least one label in front of it.
func isRegistrable(host string) bool {
	if !strings.Contains(host, ".") {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann {
		return false
	}
	return len(host) > len(suffix)+1
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// sortedIPs sorts addresses numerically, not lexically.
func sortedIPs(set map[string]struct{}) []string {
	addrs := make([]netip.Addr, 0, len(set))
	for key := range set {
		if addr, err := netip.ParseAddr(key); err == nil {
			addrs = append(addrs, addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Compare(addrs[j]) < 0
	})

	ips := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		ips = append(ips, addr.String())
	}
	return ips
}
