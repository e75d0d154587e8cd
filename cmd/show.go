package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/model"
	"github.com/pable/cricroster/internal/report"
	"github.com/pable/cricroster/internal/storage"
)

var (
	showRole    string
	showTop     int
	showPlayer  string
	showSources bool
	showFinals  bool
)

var showCmd = &cobra.Command{
	Use:   "show [run-id-prefix]",
	Short: "Show the roster of a stored run (default: latest)",
	Long: `Print the ranked roster of a run. The run is selected by id prefix; without
an argument the most recent run is shown.

Examples:
  cricroster show --top 25
  cricroster show 3f2a --role "Spin Bowler"
  cricroster show --sources --finals`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showRole, "role", "", "only show this role (Batsman, WK-Bat, Spin Bowler, Fast Bowler, All-Rounder)")
	showCmd.Flags().IntVar(&showTop, "top", 50, "show at most N players (0 for all)")
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight player id")
	showCmd.Flags().BoolVar(&showSources, "sources", false, "also print per-source match counts")
	showCmd.Flags().BoolVar(&showFinals, "finals", false, "also print detected finals")
}

func runArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// loadRun resolves a run prefix, turning a miss into a user-facing error.
func loadRun(db *storage.DB, prefix string) (*model.RunSummary, error) {
	run, err := db.GetRunByPrefix(prefix)
	if errors.Is(err, storage.ErrRunNotFound) {
		if prefix == "" {
			return nil, errors.New("no runs stored yet, run 'cricroster collect' first")
		}
		return nil, fmt.Errorf("no run found with id prefix %q", prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	return run, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return showRoster(db, runArg(args), showRole, showTop, showPlayer, showSources, showFinals)
}

// showRoster prints the header, optional source and finals tables, and the
// filtered roster of the run matching prefix.
func showRoster(db *storage.DB, prefix, role string, top int, focus string, sources, finals bool) error {
	run, err := loadRun(db, prefix)
	if err != nil {
		return err
	}
	players, err := db.GetRoster(run.ID)
	if err != nil {
		return fmt.Errorf("get roster: %w", err)
	}

	report.PrintRunHeader(os.Stdout, *run)
	if sources {
		srcs, err := db.GetSources(run.ID)
		if err != nil {
			return fmt.Errorf("get sources: %w", err)
		}
		report.PrintSourceTable(os.Stdout, srcs)
		fmt.Fprintln(os.Stdout)
	}
	if finals {
		fs, err := db.GetFinals(run.ID)
		if err != nil {
			return fmt.Errorf("get finals: %w", err)
		}
		report.PrintFinalsTable(os.Stdout, fs)
		fmt.Fprintln(os.Stdout)
	}

	shown := report.FilterRoster(players, role, top)
	if len(shown) == 0 {
		fmt.Fprintln(os.Stdout, "No players match.")
		return nil
	}
	report.PrintRosterTable(os.Stdout, shown, focus)
	return nil
}
