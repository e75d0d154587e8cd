package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the run database",
	Long: `Run an arbitrary SQL query against the run database and print results as a table.

Schema overview:
  runs(id, created_at, matches_processed, match_errors, players_seen, eligible,
    roster_size, min_players, finals)
  run_sources(run_id, name, format, hash, matches, skipped, errors)
  roster_players(run_id, rank, id, cricsheet_id, name, country, country_code,
    country_flag, primary_role, ipl_teams, trophies, test_runs, test_wickets,
    test_matches, odi_runs, ..., total_runs, total_wickets, centuries, ipl_centuries)
  roster_teammates(run_id, player_id, teammate_id)
  finals(run_id, seq, trophy, event, winner, year, player_ids)
  enrichment_log(run_id, player_id, outcome, reason, attempted_at)

ipl_teams, trophies and player_ids are comma-separated lists.

Example:
  cricroster sql "SELECT name, total_runs FROM roster_players WHERE country = 'India' ORDER BY total_runs DESC LIMIT 10"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return printQuery(db, query)
}

// printQuery runs query and prints the result set as a table.
func printQuery(db *storage.DB, query string) error {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
