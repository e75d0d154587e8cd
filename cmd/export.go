package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/report"
)

var (
	exportOut  string
	exportRole string
	exportTop  int
)

var exportCmd = &cobra.Command{
	Use:   "export [run-id-prefix]",
	Short: "Export a stored roster as JSON",
	Long: `Writes the roster of a stored run (default: latest), including any
enrichment overrides, in the same JSON shape 'collect' produces.

Example:
  cricroster export --out players.json
  cricroster export 3f2a --role WK-Bat --top 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "-", "output file path (\"-\" for stdout)")
	exportCmd.Flags().StringVar(&exportRole, "role", "", "only export this role")
	exportCmd.Flags().IntVar(&exportTop, "top", 0, "export at most N players (0 for all)")
}

func runExport(_ *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := loadRun(db, runArg(args))
	if err != nil {
		return err
	}
	players, err := db.GetRoster(run.ID)
	if err != nil {
		return fmt.Errorf("get roster: %w", err)
	}
	players = report.FilterRoster(players, exportRole, exportTop)

	if err := writeRoster(exportOut, players); err != nil {
		return err
	}
	if exportOut != "-" {
		fmt.Fprintf(os.Stderr, "Wrote %d players to %s\n", len(players), exportOut)
	}
	return nil
}
