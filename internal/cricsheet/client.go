// Package cricsheet downloads match archives and the people register from
// cricsheet.org.
package cricsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pable/cricroster/internal/model"
	"github.com/pable/cricroster/internal/parser"
)

// BaseURL is the root of the Cricsheet site.
const BaseURL = "https://cricsheet.org"

// PeopleFile is the register file name inside the data directory.
const PeopleFile = "people.csv"

// Client downloads Cricsheet files, one request at a time.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient returns a client rooted at baseURL that waits at least interval
// between requests. An empty baseURL means BaseURL.
func NewClient(baseURL string, interval time.Duration) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	// Archives run to tens of megabytes.
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Minute},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Download is one file fetched (or skipped) by FetchAll.
type Download struct {
	URL     string
	Path    string
	Bytes   int64
	Skipped bool
}

// Target pairs a remote path with its local destination.
type Target struct {
	URLPath string
	Path    string
}

// Targets returns the four match archives followed by the people register.
func Targets(dataDir string) []Target {
	out := make([]Target, 0, len(model.Formats)+1)
	for _, f := range model.Formats {
		out = append(out, Target{
			URLPath: "/downloads/" + f.ArchiveKey() + "_json.zip",
			Path:    parser.ArchivePath(dataDir, f),
		})
	}
	out = append(out, Target{URLPath: "/register/" + PeopleFile, Path: PeoplePath(dataDir)})
	return out
}

// PeoplePath returns the register path inside dataDir.
func PeoplePath(dataDir string) string {
	return filepath.Join(dataDir, PeopleFile)
}

// FetchAll downloads every target into dataDir. Files already present are
// skipped unless force is set.
func (c *Client) FetchAll(ctx context.Context, dataDir string, force bool) ([]Download, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	var out []Download
	for _, t := range Targets(dataDir) {
		d, err := c.Fetch(ctx, t, force)
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Fetch downloads one target. The body is written to a temporary file next
// to the destination and renamed into place only once complete.
func (c *Client) Fetch(ctx context.Context, t Target, force bool) (Download, error) {
	url := c.baseURL + t.URLPath
	d := Download{URL: url, Path: t.Path}
	if !force {
		if _, err := os.Stat(t.Path); err == nil {
			d.Skipped = true
			log.Info().Str("file", filepath.Base(t.Path)).Msg("already present, skipping")
			return d, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return d, err
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return d, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return d, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return d, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return d, fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.Path), filepath.Base(t.Path)+".*.part")
	if err != nil {
		return d, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return d, fmt.Errorf("write %s: %w", filepath.Base(t.Path), err)
	}
	if err := os.Rename(tmp.Name(), t.Path); err != nil {
		return d, err
	}
	d.Bytes = n
	log.Info().Str("file", filepath.Base(t.Path)).Int64("bytes", n).Dur("took", time.Since(start)).Msg("downloaded")
	return d, nil
}
