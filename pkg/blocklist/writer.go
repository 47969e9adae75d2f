// Package blocklist writes classified scam entries as plaintext
// blocklist files.
package blocklist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scamwatch/scamfeed/pkg/extract"
)

// Output filenames, one per category.
const (
	URLsFilename  = "global-anti-scam-org-scam-urls.txt"
	IPsFilename   = "global-anti-scam-org-scam-ips.txt"
	FQDNsFilename = "global-anti-scam-org-scam-urls-pihole.txt"
)

// ErrNoContent is returned when there is nothing to write: a blocklist
// run that found no URLs and no IPs must not produce empty files.
var ErrNoContent = errors.New("no content available for blocklists")

// Writer persists classification results into a directory.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

// NewWriter creates a Writer targeting dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:    dir,
		logger: log.With().Str("component", "blocklist").Logger(),
	}
}

// Timestamp returns the current UTC time in the blocklist log format.
func Timestamp() string {
	return time.Now().UTC().Format("02_Jan_2006_15_04_05-UTC")
}

// Write emits the three blocklist files. Entries arrive already sorted
// from the classifier; files hold one entry per line.
func (w *Writer) Write(c extract.Classification) error {
	if c.Empty() {
		w.logger.Error().Msg("No content available for blocklists")
		return ErrNoContent
	}

	if err := w.writeFile(URLsFilename, c.URLs, "non-IPs"); err != nil {
		return err
	}
	if err := w.writeFile(IPsFilename, c.IPs, "IPs"); err != nil {
		return err
	}
	return w.writeFile(FQDNsFilename, c.FQDNs, "FQDNs")
}

func (w *Writer) writeFile(filename string, entries []string, kind string) error {
	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, []byte(strings.Join(entries, "\n")), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}

	w.logger.Info().
		Int("count", len(entries)).
		Str("file", filename).
		Str("timestamp", Timestamp()).
		Msgf("%d %s written to %s", len(entries), kind, filename)

	return nil
}
