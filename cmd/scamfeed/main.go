// Command scamfeed collects reported scam URLs from the Global Anti-Scam
// Organization site and writes them out as blocklist files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/redis/go-redis/v9"

	"github.com/scamwatch/scamfeed/pkg/blocklist"
	"github.com/scamwatch/scamfeed/pkg/cache"
	"github.com/scamwatch/scamfeed/pkg/extract"
	"github.com/scamwatch/scamfeed/pkg/fetcher"
	"github.com/scamwatch/scamfeed/pkg/logging"
	"github.com/scamwatch/scamfeed/pkg/scrape"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// CLI defines the command line interface.
type CLI struct {
	Out         string        `short:"o" default:"." help:"Directory to write blocklist files to"`
	BaseURL     string        `help:"Target site base URL" default:"https://www.globalantiscam.org"`
	Concurrency int           `short:"c" default:"5" help:"Maximum concurrent requests"`
	Retries     int           `short:"r" default:"5" help:"Maximum attempts per endpoint"`
	Timeout     time.Duration `short:"t" default:"300s" help:"Deadline for one fetch batch"`
	RPS         float64       `default:"2" help:"Navigation requests per second per domain"`
	Session     string        `env:"SCAMFEED_SESSION" help:"svSession token sent as a cookie"`
	Redis       string        `env:"REDIS_URL" help:"Redis address for the response cache (empty disables caching)"`
	CacheTTL    time.Duration `default:"15m" help:"Response cache entry lifetime"`
	LogLevel    string        `default:"info" enum:"debug,info,warn,error" help:"Minimum log level"`
	Pretty      bool          `help:"Human-readable console log output"`

	API   APICmd   `cmd:"" help:"Collect via the site's collection query API"`
	Crawl CrawlCmd `cmd:"" help:"Collect by crawling the listing page and its report feeds"`
}

// APICmd collects reports through offset pagination of the data API.
type APICmd struct{}

// CrawlCmd collects reports by walking the listing page and linked feeds.
type CrawlCmd struct{}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("scamfeed"),
		kong.Description("Collect reported scam URLs and write blocklist files"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command provided")
	}
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cli.LogLevel),
		Pretty: cli.Pretty,
		Output: stderr,
	})

	headers := fetcher.DefaultHeaders()
	if cli.Session != "" {
		headers["Cookie"] = "svSession=" + cli.Session
	}

	f, err := fetcher.New(fetcher.Config{
		MaxConcurrent: cli.Concurrency,
		MaxRetries:    cli.Retries,
		BatchTimeout:  cli.Timeout,
		Headers:       headers,
	})
	if err != nil {
		return fmt.Errorf("fetcher config: %w", err)
	}

	var responseCache *cache.Manager
	if cli.Redis != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cli.Redis})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis at %s: %w", cli.Redis, err)
		}
		defer redisClient.Close()
		responseCache = cache.NewManager(redisClient, cli.CacheTTL)
		logger.Info().Str("addr", cli.Redis).Msg("Response cache enabled")
	}

	scraper := scrape.New(f, responseCache, scrape.Config{
		BaseURL:           cli.BaseURL,
		RequestsPerSecond: cli.RPS,
	})

	var urls []string
	switch kctx.Command() {
	case "api":
		urls, err = scraper.CollectFromAPI(ctx)
	case "crawl":
		urls, err = scraper.CollectFromPages(ctx)
	default:
		return fmt.Errorf("unknown command: %s", kctx.Command())
	}
	if err != nil {
		return err
	}

	classified := extract.Classify(urls)
	logger.Info().
		Int("urls", len(classified.URLs)).
		Int("ips", len(classified.IPs)).
		Msg("Classification complete")

	writer := blocklist.NewWriter(cli.Out)
	if err := writer.Write(classified); err != nil {
		return fmt.Errorf("write blocklists: %w", err)
	}

	fmt.Fprintf(stdout, "wrote %d urls and %d ips to %s\n",
		len(classified.URLs), len(classified.IPs), cli.Out)
	return nil
}
