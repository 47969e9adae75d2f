package scrape

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scamwatch/scamfeed/pkg/cache"
	"github.com/scamwatch/scamfeed/pkg/extract"
	"github.com/scamwatch/scamfeed/pkg/fetcher"
)

// ListingPath is the static page listing reported scam websites.
const ListingPath = "/scam-websites"

// Config holds scraper configuration.
type Config struct {
	// BaseURL of the target site. Defaults to DefaultBaseURL.
	BaseURL string

	// FeedPathPrefixes select which same-host links on the listing page
	// count as report feeds. Defaults to DefaultFeedPathPrefixes.
	FeedPathPrefixes []string

	// RequestsPerSecond paces navigation rounds per domain. Defaults to 2.
	RequestsPerSecond float64
}

// Scraper derives endpoint sets, feeds them to the batch fetcher, and
// assembles raw reported URLs. Each fetch call is independent; only the
// optional response cache carries state between runs.
type Scraper struct {
	fetcher *fetcher.Fetcher
	cache   *cache.Manager
	limiter *DomainLimiter
	config  Config
	logger  zerolog.Logger
}

// New creates a Scraper. responseCache may be nil to disable caching.
func New(f *fetcher.Fetcher, responseCache *cache.Manager, cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.FeedPathPrefixes == nil {
		cfg.FeedPathPrefixes = DefaultFeedPathPrefixes
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}

	return &Scraper{
		fetcher: f,
		cache:   responseCache,
		limiter: NewDomainLimiter(cfg.RequestsPerSecond),
		config:  cfg,
		logger:  log.With().Str("component", "scraper").Logger(),
	}
}

// CollectFromAPI retrieves every collection page via offset pagination
// and returns the cleaned raw URLs.
func (s *Scraper) CollectFromAPI(ctx context.Context) ([]string, error) {
	first := APIEndpoint(s.config.BaseURL, 0)

	if err := s.waitPolite(ctx); err != nil {
		return nil, err
	}
	firstBody, ok := s.fetchBatch(ctx, []string{first})[first]
	if !ok || fetcher.IsSentinel(firstBody) {
		return nil, fmt.Errorf("unable to retrieve first page")
	}

	page, err := extract.ParseAPIBody(firstBody)
	if err != nil {
		return nil, fmt.Errorf("first page: %w", err)
	}

	s.logger.Info().
		Int("total_results", page.TotalResults).
		Msg("Starting paginated collection fetch")

	bodies := [][]byte{firstBody}
	if rest := OffsetEndpoints(s.config.BaseURL, page.TotalResults); len(rest) > 0 {
		if err := s.waitPolite(ctx); err != nil {
			return nil, err
		}
		for _, body := range s.fetchBatch(ctx, rest) {
			bodies = append(bodies, body)
		}
	}

	urls := extract.URLsFromAPIBodies(bodies)
	s.logger.Info().
		Int("pages", len(bodies)).
		Int("urls", len(urls)).
		Msg("Collection fetch complete")

	return urls, nil
}

// CollectFromPages retrieves the listing page, discovers its report
// feeds, and returns the cleaned raw URLs found across all of them.
func (s *Scraper) CollectFromPages(ctx context.Context) ([]string, error) {
	listing := s.config.BaseURL + ListingPath

	if err := s.waitPolite(ctx); err != nil {
		return nil, err
	}
	listingBody, ok := s.fetchBatch(ctx, []string{listing})[listing]
	if !ok || fetcher.IsSentinel(listingBody) {
		return nil, fmt.Errorf("unable to retrieve listing page")
	}

	urls, err := PageURLs(listingBody)
	if err != nil {
		return nil, fmt.Errorf("listing page: %w", err)
	}

	feeds, err := FeedURLs(listing, listingBody, s.config.FeedPathPrefixes)
	if err != nil {
		return nil, fmt.Errorf("feed discovery: %w", err)
	}

	s.logger.Info().
		Int("feeds", len(feeds)).
		Msg("Discovered report feeds")

	if len(feeds) > 0 {
		if err := s.waitPolite(ctx); err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, len(urls))
		for _, u := range urls {
			seen[u] = struct{}{}
		}
		for _, body := range s.fetchBatch(ctx, feeds) {
			if fetcher.IsSentinel(body) {
				continue
			}
			found, err := PageURLs(body)
			if err != nil {
				continue
			}
			for _, u := range found {
				if _, ok := seen[u]; ok {
					continue
				}
				seen[u] = struct{}{}
				urls = append(urls, u)
			}
		}
	}

	s.logger.Info().
		Int("urls", len(urls)).
		Msg("Page crawl complete")

	return urls, nil
}

// fetchBatch runs one fetcher batch, serving and populating the response
// cache around it when caching is enabled. Only real bodies are cached;
// sentinel results stay uncached so the next run retries them.
func (s *Scraper) fetchBatch(ctx context.Context, endpoints []string) map[string][]byte {
	if s.cache == nil {
		return s.fetcher.Fetch(ctx, endpoints)
	}

	results := make(map[string][]byte, len(endpoints))
	var misses []string
	for _, endpoint := range endpoints {
		body, err := s.cache.Get(ctx, endpoint)
		if err == nil {
			results[endpoint] = body
			continue
		}
		if err != cache.ErrCacheMiss {
			s.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		misses = append(misses, endpoint)
	}

	if len(misses) == 0 {
		return results
	}

	for endpoint, body := range s.fetcher.Fetch(ctx, misses) {
		results[endpoint] = body
		if fetcher.IsSentinel(body) {
			continue
		}
		if err := s.cache.Set(ctx, endpoint, body); err != nil {
			s.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache set error")
		}
	}

	return results
}

// waitPolite applies the per-domain rate limit before a navigation round.
func (s *Scraper) waitPolite(ctx context.Context) error {
	parsed, err := url.Parse(s.config.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	return s.limiter.Wait(ctx, parsed.Host)
}
