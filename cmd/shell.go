package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pable/cricroster/internal/report"
	"github.com/pable/cricroster/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the run database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// shellSession is the state carried between REPL lines.
type shellSession struct {
	db  *storage.DB
	run string // selected run id prefix; empty means latest
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cGreeting.Println("cricroster shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	s := &shellSession{db: db}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("cricroster")
		if s.run != "" {
			cMuted.Printf("[%s]", s.run)
		}
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		if done := s.exec(scanner.Text()); done {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one input line and reports whether the session should end.
func (s *shellSession) exec(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	tokens := strings.Fields(line)
	cmd, args := tokens[0], tokens[1:]

	var err error
	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		shellHelp(os.Stdout)
	case "list":
		err = s.list()
	case "use":
		err = s.use(args)
	case "show":
		err = s.show(args)
	case "player":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: player <id|name> [...]")
			return false
		}
		err = showPlayers(s.db, s.run, args)
	case "summary":
		err = printSummary(s.db, s.run, 10)
	case "sql":
		// Keep the query text intact; Fields would collapse its spacing.
		err = printQuery(s.db, strings.TrimSpace(strings.TrimPrefix(line, cmd)))
	default:
		cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
	}
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return false
}

func shellHelp(w io.Writer) {
	fmt.Fprintln(w)
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored runs"},
		{"use <run-prefix>", "select a run for the following commands"},
		{"show [--role R] [--top N]", "show the selected run's roster"},
		{"show --sources --finals", "same, with source and finals tables"},
		{"player <id|name> [...]", "one player's full record"},
		{"summary", "role, country and trophy overview"},
		{"sql <query>", "raw SQL against the run database"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Fprint(w, "  ")
		cCmd.Fprintf(w, "%-38s", r.cmd)
		fmt.Fprintln(w, r.desc)
	}
	fmt.Fprintln(w)
}

func (s *shellSession) list() error {
	runs, err := s.db.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cMuted.Println("No runs stored yet.")
		return nil
	}
	report.PrintRunList(os.Stdout, runs)
	return nil
}

func (s *shellSession) use(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: use <run-prefix>")
	}
	run, err := loadRun(s.db, args[0])
	if err != nil {
		return err
	}
	s.run = run.ID[:8]
	return nil
}

// showArgs are the flags accepted by the shell's show command.
type showArgs struct {
	role    string
	top     int
	focus   string
	sources bool
	finals  bool
}

func parseShowArgs(args []string) (showArgs, error) {
	var a showArgs
	fs := pflag.NewFlagSet("show", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.role, "role", "", "")
	fs.IntVar(&a.top, "top", 25, "")
	fs.StringVar(&a.focus, "player", "", "")
	fs.BoolVar(&a.sources, "sources", false, "")
	fs.BoolVar(&a.finals, "finals", false, "")
	if err := fs.Parse(args); err != nil {
		return a, err
	}
	// Roles with a space arrive split across tokens.
	if rest := fs.Args(); a.role != "" && len(rest) > 0 {
		a.role += " " + strings.Join(rest, " ")
	}
	return a, nil
}

func (s *shellSession) show(args []string) error {
	a, err := parseShowArgs(args)
	if err != nil {
		return err
	}
	return showRoster(s.db, s.run, a.role, a.top, a.focus, a.sources, a.finals)
}
