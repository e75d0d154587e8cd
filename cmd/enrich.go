package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/enrich"
	"github.com/pable/cricroster/internal/metrics"
	"github.com/pable/cricroster/internal/report"
)

var (
	enrichModel          string
	enrichAPIKey         string
	enrichDelay          time.Duration
	enrichOnlySuspicious bool
	enrichResume         bool
	enrichDryRun         bool
	enrichLimit          int
	enrichPool           int
	enrichLog            bool
	enrichMetrics        string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [run-id-prefix]",
	Short: "Override undercounted stats with AI-proposed career figures (requires ANTHROPIC_API_KEY)",
	Long: `Asks a Claude model for each roster player's official international career
figures and stores them when they pass the plausibility checks. League figures
are never changed. Every attempt is checkpointed, so an interrupted pass can
continue with --resume.

The pool defaults to the run's minimum roster size plus 100 players.

Examples:
  cricroster enrich --dry-run
  cricroster enrich --only-suspicious --resume
  cricroster enrich 3f2a --log`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringVar(&enrichModel, "model", "", "Anthropic model to use (default $CRICROSTER_ENRICH_MODEL)")
	enrichCmd.Flags().StringVar(&enrichAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	enrichCmd.Flags().DurationVar(&enrichDelay, "delay", 0, "minimum pause between requests (default $CRICROSTER_ENRICH_DELAY)")
	enrichCmd.Flags().BoolVar(&enrichOnlySuspicious, "only-suspicious", false, "only players whose figures look undercounted")
	enrichCmd.Flags().BoolVar(&enrichResume, "resume", false, "skip players already attempted for this run")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, fmt.Sprintf("try at most %d players and store nothing", enrich.DryRunLimit))
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "attempt at most N players (0 for all)")
	enrichCmd.Flags().IntVar(&enrichPool, "pool", 0, "consider the top N roster players (default min-players+100)")
	enrichCmd.Flags().BoolVar(&enrichLog, "log", false, "print the stored enrichment log and exit")
	enrichCmd.Flags().StringVar(&enrichMetrics, "metrics", "", "write Prometheus textfile metrics to this path")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := loadRun(db, runArg(args))
	if err != nil {
		return err
	}

	if enrichLog {
		entries, err := db.EnrichmentLog(run.ID)
		if err != nil {
			return fmt.Errorf("get enrichment log: %w", err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stdout, "No enrichment attempts for this run.")
			return nil
		}
		report.PrintEnrichmentLog(os.Stdout, entries)
		return nil
	}

	apiKey := enrichAPIKey
	if apiKey == "" {
		apiKey = env.AnthropicKey
	}
	model := enrichModel
	if model == "" {
		model = env.EnrichModel
	}
	delay := enrichDelay
	if !cmd.Flags().Changed("delay") {
		delay = env.EnrichDelay
	}

	proposer, err := enrich.NewAnthropicProposer(apiKey, model)
	if err != nil {
		return err
	}

	players, err := db.GetRoster(run.ID)
	if err != nil {
		return fmt.Errorf("get roster: %w", err)
	}
	pool := enrichPool
	if pool <= 0 {
		pool = run.MinPlayers + 100
	}
	if len(players) > pool {
		players = players[:pool]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	m := metrics.New()
	runner := enrich.NewRunner(proposer, db, delay, m)
	rep, runErr := runner.Run(ctx, run.ID, players, enrich.Options{
		OnlySuspicious: enrichOnlySuspicious,
		Resume:         enrichResume,
		DryRun:         enrichDryRun,
		Limit:          enrichLimit,
	})
	if rep != nil {
		report.PrintRunHeader(os.Stdout, *run)
		report.PrintEnrichReport(os.Stdout, rep, enrichDryRun)
	}
	if enrichMetrics != "" {
		if err := m.WriteTextfile(enrichMetrics); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if runErr != nil {
		if !enrichDryRun {
			fmt.Fprintln(os.Stderr, "Progress is saved; continue with --resume.")
		}
		return runErr
	}
	return nil
}
