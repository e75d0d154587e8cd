package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/report"
	"github.com/pable/cricroster/internal/storage"
)

var summaryCountries int

// summaryCmd prints a high-level overview of one run.
var summaryCmd = &cobra.Command{
	Use:   "summary [run-id-prefix]",
	Short: "Show a high-level overview of a run (default: latest)",
	Long: `Display aggregate statistics about a stored run: sources read, role
breakdown, players per country, trophy holders, players with IPL history
and average teammates per player.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryCountries, "countries", 15, "show at most N countries (0 for all)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return printSummary(db, runArg(args), summaryCountries)
}

// printSummary prints the overview of the run matching prefix.
func printSummary(db *storage.DB, prefix string, countries int) error {
	run, err := loadRun(db, prefix)
	if err != nil {
		return err
	}
	players, err := db.GetRoster(run.ID)
	if err != nil {
		return fmt.Errorf("get roster: %w", err)
	}
	sources, err := db.GetSources(run.ID)
	if err != nil {
		return fmt.Errorf("get sources: %w", err)
	}
	enriched, err := db.EnrichmentLog(run.ID)
	if err != nil {
		return fmt.Errorf("get enrichment log: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n=== Run Summary ===\n\n")
	st := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	st.Header("FIELD", "VALUE")
	st.Append("Run", run.ID)
	st.Append("Created", run.CreatedAt)
	st.Append("Matches processed", strconv.Itoa(run.MatchesProcessed))
	st.Append("Malformed records", strconv.Itoa(run.MatchErrors))
	st.Append("Players seen", strconv.Itoa(run.PlayersSeen))
	st.Append("Eligible", strconv.Itoa(run.Eligible))
	st.Append("Roster size", fmt.Sprintf("%d (min %d)", run.RosterSize, run.MinPlayers))
	st.Append("Finals detected", strconv.Itoa(run.Finals))
	st.Append("Enrichment attempts", strconv.Itoa(len(enriched)))
	st.Render()

	fmt.Fprintf(os.Stdout, "\n--- Sources ---\n\n")
	report.PrintSourceTable(os.Stdout, sources)

	fmt.Fprintf(os.Stdout, "\n--- Roster ---\n\n")
	report.PrintDistribution(os.Stdout, report.Summarize(players), countries)
	return nil
}
