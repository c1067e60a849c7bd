// Command behavior-report scores driver-behaviour detection
// configurations against labeled sensor recordings: replay sessions,
// compute classification metrics, compare candidates against a baseline
// and manage persisted detection settings.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/behavior.report/internal/monitoring"
	"github.com/banshee-data/behavior.report/internal/version"
)

var (
	dbPath      = flag.String("db", "behavior.db", "sqlite database path")
	debug       = flag.Bool("debug", false, "enable debug logging")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command> [command flags]

Commands:
  validate   replay a directory of labeled sessions and score one configuration
  compare    score a candidate configuration against a baseline over the same sessions
  settings   show, update or reset the stored detection settings
  presets    list the built-in configuration presets
  runs       list, show or compare persisted validation runs
  trace      plot one session's raw signal and detector input
  migrate    manage the database schema (up, down, status)

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("behavior-report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *debug {
		monitoring.EnableDebug()
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "validate":
		err = cmdValidate(args[1:])
	case "compare":
		err = cmdCompare(args[1:])
	case "settings":
		err = cmdSettings(args[1:])
	case "presets":
		err = cmdPresets(args[1:])
	case "runs":
		err = cmdRuns(args[1:])
	case "trace":
		err = cmdTrace(args[1:])
	case "migrate":
		err = cmdMigrate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", args[0], err)
	}
}
