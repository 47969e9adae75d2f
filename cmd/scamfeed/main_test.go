package main_test

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	main "github.com/scamwatch/scamfeed/cmd/scamfeed"
	"github.com/scamwatch/scamfeed/internal/testutil"
	"github.com/scamwatch/scamfeed/pkg/blocklist"
)

func TestCLI_ShowsHelpWhenAsked(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "scamfeed")
	assert.Contains(t, stdout.String(), "api")
	assert.Contains(t, stdout.String(), "crawl")
}

func TestCLI_ErrorsWithoutCommand(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, stdout.String(), "scamfeed")
}

func TestCLI_RejectsUnknownFlag(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"api", "--bogus"}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestCLI_RejectsInvalidLogLevel(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(),
		[]string{"api", "--log-level", "loud"}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestCLI_APIWritesBlocklists(t *testing.T) {
	site := testutil.NewMockSite()
	defer site.Close()

	site.SetHandler("/_api/cloud-data/v1/wix-data/collections/query",
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"totalResults": 2, "items": [
				{"url": "https://fraud.example.com/"},
				{"url": "203.0.113.9"}
			]}`))
		})

	outDir := t.TempDir()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{
		"api",
		"--base-url", site.URL(),
		"--out", outDir,
		"--rps", "1000",
	}, &stdout, &stderr)
	require.NoError(t, err)

	urls, err := os.ReadFile(filepath.Join(outDir, blocklist.URLsFilename))
	require.NoError(t, err)
	assert.Contains(t, string(urls), "fraud.example.com")

	ips, err := os.ReadFile(filepath.Join(outDir, blocklist.IPsFilename))
	require.NoError(t, err)
	assert.Contains(t, string(ips), "203.0.113.9")

	assert.Contains(t, stdout.String(), outDir)
}

func TestCLI_CrawlWritesBlocklists(t *testing.T) {
	site := testutil.NewMockSite()
	defer site.Close()

	site.SetResponse("/scam-websites", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body: `<html><body>
			<a href="/post/report">report</a>
			<p>listed-scam.example.net</p>
		</body></html>`,
	})
	site.SetResponse("/post/report", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<li>posted-scam.example.org</li>`,
	})

	outDir := t.TempDir()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{
		"crawl",
		"--base-url", site.URL(),
		"--out", outDir,
		"--rps", "1000",
	}, &stdout, &stderr)
	require.NoError(t, err)

	urls, err := os.ReadFile(filepath.Join(outDir, blocklist.URLsFilename))
	require.NoError(t, err)
	assert.Contains(t, string(urls), "listed-scam.example.net")
	assert.Contains(t, string(urls), "posted-scam.example.org")
}
