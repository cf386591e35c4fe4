// Command gaze segments eye-tracking trials into fixations and saccades.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/version"
)

const usage = `Usage: gaze <command> [flags]

Commands:
  detect    segment one trial of a subject
  batch     segment every trial of a subject in parallel
  sweep     evaluate a grid of thresholds on one trial
  serve     run the HTTP API
  migrate   manage the run database schema
  version   print build information

Run 'gaze <command> -h' for command flags.
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "detect":
		return runDetect(rest, stdout)
	case "batch":
		return runBatch(rest, stdout)
	case "sweep":
		return runSweep(rest, stdout)
	case "serve":
		return runServe(rest)
	case "migrate":
		return runMigrate(rest, stdout)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runMigrate(args []string, stdout io.Writer) error {
	fs := newFlagSet("migrate")
	dbPath := fs.String("db", defaultDBPath, "SQLite database file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, stdout)
}
