package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/model"
	"github.com/pable/cricroster/internal/report"
	"github.com/pable/cricroster/internal/storage"
)

var playerRun string

// playerCmd prints the full record of one or more roster players.
var playerCmd = &cobra.Command{
	Use:   "player <id|name> [<id|name>...]",
	Short: "Show one player's full record including teammates and trophies",
	Long: `Print a player's per-format breakdown, IPL teams, trophies and teammates.
An argument that is not an exact roster id is matched against ids and names.

Examples:
  cricroster player ind_sachin_tendulkar
  cricroster player dhoni --run 3f2a`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().StringVar(&playerRun, "run", "", "run id prefix (default: latest)")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return showPlayers(db, playerRun, args)
}

// showPlayers prints each queried player of the run matching prefix.
func showPlayers(db *storage.DB, prefix string, queries []string) error {
	run, err := loadRun(db, prefix)
	if err != nil {
		return err
	}

	var roster []model.RosterPlayer
	for _, q := range queries {
		p, err := db.GetPlayer(run.ID, q)
		if err == nil {
			report.PrintPlayerDetail(os.Stdout, *p)
			continue
		}
		if !errors.Is(err, storage.ErrPlayerNotFound) {
			return fmt.Errorf("get player: %w", err)
		}

		if roster == nil {
			if roster, err = db.GetRoster(run.ID); err != nil {
				return fmt.Errorf("get roster: %w", err)
			}
		}
		matches := searchRoster(roster, q)
		switch len(matches) {
		case 0:
			fmt.Fprintf(os.Stderr, "No player matching %q in run %s\n", q, run.ID[:8])
		case 1:
			report.PrintPlayerDetail(os.Stdout, matches[0])
		default:
			fmt.Fprintf(os.Stdout, "%d players match %q:\n", len(matches), q)
			report.PrintRosterTable(os.Stdout, matches, "")
		}
	}
	return nil
}

// searchRoster returns players whose id or name contains q, case-insensitively.
func searchRoster(players []model.RosterPlayer, q string) []model.RosterPlayer {
	q = strings.ToLower(q)
	var out []model.RosterPlayer
	for _, p := range players {
		if strings.Contains(p.ID, q) || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}
