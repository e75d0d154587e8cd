package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/cricsheet"
)

var (
	fetchForce    bool
	fetchBaseURL  string
	fetchInterval time.Duration
)

// fetchCmd downloads the Cricsheet archives and the people register.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the Cricsheet match archives and people register",
	Long: `Downloads tests_json.zip, odis_json.zip, t20s_json.zip, ipl_json.zip and
people.csv from cricsheet.org into the data directory. Files that already exist
are kept unless --force is given.

Examples:
  cricroster fetch
  cricroster fetch --data-dir /srv/cricsheet --force`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-download files that already exist")
	fetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", cricsheet.BaseURL, "Cricsheet mirror to download from")
	fetchCmd.Flags().DurationVar(&fetchInterval, "interval", time.Second, "minimum pause between downloads")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	c := cricsheet.NewClient(fetchBaseURL, fetchInterval)
	downloads, err := c.FetchAll(ctx, dataDir, fetchForce)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	var fetched, skipped int
	for _, d := range downloads {
		if d.Skipped {
			skipped++
			continue
		}
		fetched++
		fmt.Fprintf(os.Stdout, "  %-20s %8.1f MB\n", d.Path, float64(d.Bytes)/(1<<20))
	}
	fmt.Fprintf(os.Stdout, "Fetched %d files, kept %d existing in %s\n", fetched, skipped, dataDir)
	return nil
}
