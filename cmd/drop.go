package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce bool
	dropRun   string
)

// dropCmd deletes the run database file, or a single run.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the run database (or one run with --run)",
	Long:  "Permanently delete the SQLite run database. All stored runs and enrichment results will be lost. Re-run 'collect' afterwards to rebuild.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropRun, "run", "", "delete only the run with this id prefix")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropRun != "" {
		return dropOneRun()
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropOneRun() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := loadRun(db, dropRun)
	if err != nil {
		return err
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete run %s (%d players).\n", run.ID, run.RosterSize)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := db.DeleteRun(run.ID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted run: %s\n", run.ID)
	return nil
}
