//go:build integration

package integration

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scamwatch/scamfeed/internal/testutil"
	"github.com/scamwatch/scamfeed/pkg/blocklist"
	"github.com/scamwatch/scamfeed/pkg/cache"
	"github.com/scamwatch/scamfeed/pkg/extract"
	"github.com/scamwatch/scamfeed/pkg/fetcher"
	"github.com/scamwatch/scamfeed/pkg/scrape"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

const queryPath = "/_api/cloud-data/v1/wix-data/collections/query"

// TestFullCollectionFlow covers the complete pipeline: paginated API
// fetch through the response cache, classification, and blocklist output.
func TestFullCollectionFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	site := testutil.NewMockSite()
	defer site.Close()

	pages := map[string]string{
		"0":    `{"totalResults": 1500, "items": [{"url": "https://fraud.example.com/"}, {"url": "203.0.113.9"}]}`,
		"1000": `{"items": [{"url": "more-fraud.example.net"}]}`,
	}
	site.SetHandler(queryPath, func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Query().Get("offset")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})

	f, err := fetcher.New(fetcher.Config{
		MaxConcurrent: 5,
		MaxRetries:    2,
		BackoffFactor: 10 * time.Millisecond,
		PacingDelay:   10 * time.Millisecond,
		BatchTimeout:  30 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create fetcher: %v", err)
	}

	responseCache := cache.NewManager(redisClient, 5*time.Minute)
	scraper := scrape.New(f, responseCache, scrape.Config{
		BaseURL:           site.URL(),
		RequestsPerSecond: 1000,
	})

	ctx := context.Background()

	urls, err := scraper.CollectFromAPI(ctx)
	if err != nil {
		t.Fatalf("CollectFromAPI failed: %v", err)
	}
	if len(urls) != 3 {
		t.Errorf("Expected 3 collected urls, got %d: %v", len(urls), urls)
	}
	firstRunRequests := site.PathCount(queryPath)
	if firstRunRequests != 2 {
		t.Errorf("Expected 2 API requests on first run, got %d", firstRunRequests)
	}

	// Second run must be served entirely from the response cache.
	cachedURLs, err := scraper.CollectFromAPI(ctx)
	if err != nil {
		t.Fatalf("Cached CollectFromAPI failed: %v", err)
	}
	if len(cachedURLs) != len(urls) {
		t.Errorf("Cached run returned %d urls, want %d", len(cachedURLs), len(urls))
	}
	if got := site.PathCount(queryPath); got != firstRunRequests {
		t.Errorf("Cached run hit the site: %d requests, want %d", got, firstRunRequests)
	}

	// Classify and write the blocklist files.
	classified := extract.Classify(urls)
	outDir := t.TempDir()
	if err := blocklist.NewWriter(outDir).Write(classified); err != nil {
		t.Fatalf("Blocklist write failed: %v", err)
	}

	urlsFile, err := os.ReadFile(filepath.Join(outDir, blocklist.URLsFilename))
	if err != nil {
		t.Fatalf("Failed to read urls file: %v", err)
	}
	for _, want := range []string{"fraud.example.com", "more-fraud.example.net"} {
		if !strings.Contains(string(urlsFile), want) {
			t.Errorf("urls file missing %q", want)
		}
	}

	ipsFile, err := os.ReadFile(filepath.Join(outDir, blocklist.IPsFilename))
	if err != nil {
		t.Fatalf("Failed to read ips file: %v", err)
	}
	if !strings.Contains(string(ipsFile), "203.0.113.9") {
		t.Errorf("ips file missing 203.0.113.9")
	}
}

// TestFailedEndpointsAreNotCached verifies that sentinel results stay out
// of the cache so the next run retries them against the live site.
func TestFailedEndpointsAreNotCached(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	site := testutil.NewMockSite()
	defer site.Close()
	site.SetResponse(queryPath, testutil.NewServerErrorResponse())

	f, err := fetcher.New(fetcher.Config{
		MaxConcurrent: 2,
		MaxRetries:    2,
		BackoffFactor: 10 * time.Millisecond,
		PacingDelay:   10 * time.Millisecond,
		BatchTimeout:  30 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create fetcher: %v", err)
	}

	responseCache := cache.NewManager(redisClient, 5*time.Minute)
	scraper := scrape.New(f, responseCache, scrape.Config{
		BaseURL:           site.URL(),
		RequestsPerSecond: 1000,
	})

	ctx := context.Background()

	if _, err := scraper.CollectFromAPI(ctx); err == nil {
		t.Fatal("Expected error when every page fails")
	}

	endpoint := scrape.APIEndpoint(site.URL(), 0)
	if _, err := responseCache.Get(ctx, endpoint); err != cache.ErrCacheMiss {
		t.Errorf("Failed endpoint should not be cached, got err=%v", err)
	}
}
