package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/config"
	"github.com/pable/cricroster/internal/cricsheet"
	"github.com/pable/cricroster/internal/metrics"
	"github.com/pable/cricroster/internal/model"
	"github.com/pable/cricroster/internal/pipeline"
	"github.com/pable/cricroster/internal/registry"
	"github.com/pable/cricroster/internal/report"
	"github.com/pable/cricroster/internal/roster"
)

var (
	collectQuick      bool
	collectMinPlayers int
	collectOut        string
	collectMetrics    string
	collectNoStore    bool
)

var (
	cPhase = color.New(color.FgCyan, color.Bold)
	cDone  = color.New(color.FgGreen)
	cWarn  = color.New(color.FgYellow)
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Build the roster from the downloaded archives",
	Long: `Reads every archive in the data directory, aggregates per-format careers,
classifies roles, credits trophies and writes the ranked roster as JSON.
The run is stored in the database for later inspection and enrichment.

Examples:
  cricroster fetch && cricroster collect
  cricroster collect --quick --min-players 100 --out roster.json`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().BoolVar(&collectQuick, "quick", false, fmt.Sprintf("read at most %d matches per format", pipeline.QuickLimit))
	collectCmd.Flags().IntVar(&collectMinPlayers, "min-players", 0, "minimum roster size (default $CRICROSTER_MIN_PLAYERS or 500)")
	collectCmd.Flags().StringVar(&collectOut, "out", "players.json", "roster JSON output path (\"-\" for stdout)")
	collectCmd.Flags().StringVar(&collectMetrics, "metrics", "", "write Prometheus textfile metrics to this path")
	collectCmd.Flags().BoolVar(&collectNoStore, "no-store", false, "do not save the run to the database")
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	minPlayers := collectMinPlayers
	if minPlayers <= 0 {
		minPlayers = env.MinPlayers
	}

	curated, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cPhase.Fprintln(os.Stderr, "Phase 1: loading player register")
	peoplePath := cricsheet.PeoplePath(dataDir)
	reg, err := registry.LoadCSV(peoplePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", peoplePath).Msg("people.csv not found, using in-match registries only")
	case err != nil:
		return fmt.Errorf("%w (run 'cricroster fetch' first)", err)
	}
	log.Info().Int("people", reg.Len()).Msg("register loaded")

	sources, err := pipeline.OpenSources(dataDir)
	if err != nil {
		return err
	}
	defer pipeline.CloseSources(sources)
	if len(sources) == 0 {
		return fmt.Errorf("no archives in %s (run 'cricroster fetch' first)", dataDir)
	}

	p, err := pipeline.New(reg, curated)
	if err != nil {
		return err
	}
	m := metrics.New()

	cPhase.Fprintf(os.Stderr, "Phase 2: aggregating %d sources\n", len(sources))
	if collectQuick {
		cWarn.Fprintf(os.Stderr, "Quick mode: at most %d matches per format\n", pipeline.QuickLimit)
	}
	start := time.Now()
	res, err := p.Run(ctx, sources, pipeline.Options{
		MinPlayers: minPlayers,
		Quick:      collectQuick,
		Metrics:    m,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}
	cDone.Fprintf(os.Stderr, "Done in %s\n", time.Since(start).Round(time.Millisecond))
	for role, n := range res.RoleCounts {
		log.Debug().Str("role", string(role)).Int("players", n).Msg("classified")
	}

	cPhase.Fprintln(os.Stderr, "Phase 3: writing roster")
	if err := writeRoster(collectOut, res.Roster); err != nil {
		return err
	}

	run := res.Summary(minPlayers)
	if !collectNoStore {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveRun(&run, res.Sources, res.Roster, res.Finals); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	if collectMetrics != "" {
		if err := m.WriteTextfile(collectMetrics); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if collectOut != "-" {
		report.PrintRunHeader(os.Stdout, run)
		report.PrintSourceTable(os.Stdout, res.Sources)
		fmt.Fprintln(os.Stdout)
		report.PrintDistribution(os.Stdout, report.Summarize(res.Roster), 10)
		fmt.Fprintf(os.Stdout, "\nRoster written to %s\n", collectOut)
	}
	return nil
}

func writeRoster(path string, players []model.RosterPlayer) error {
	if path == "-" {
		return roster.Encode(os.Stdout, players)
	}
	return roster.WriteFile(path, players)
}
