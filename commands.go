package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/db"
	"github.com/banshee-data/behavior.report/internal/monitoring"
	"github.com/banshee-data/behavior.report/internal/motion/replay"
	"github.com/banshee-data/behavior.report/internal/motion/validate"
)

// resolveConfig picks the configuration a command runs with. A preset
// name and an explicit config file are mutually exclusive; with neither,
// defaults apply.
func resolveConfig(preset, configPath string) (*config.DetectionConfig, string, error) {
	if preset != "" && configPath != "" {
		return nil, "", fmt.Errorf("use either a preset or a config file, not both")
	}
	if preset != "" {
		c, ok := config.GetPresets()[preset]
		if !ok {
			return nil, "", fmt.Errorf("unknown preset %q (have: %v)", preset, config.GetPresetNames())
		}
		return c, preset, nil
	}
	if configPath != "" {
		c, err := config.LoadDetectionConfig(configPath)
		if err != nil {
			return nil, "", err
		}
		return c, configPath, nil
	}
	return config.EmptyDetectionConfig(), "defaults", nil
}

// loadSessions reads a session directory, logging malformed files and
// failing only when nothing replayable remains.
func loadSessions(dir string) ([]*replay.DatasetSession, error) {
	if dir == "" {
		return nil, fmt.Errorf("a session directory is required (-sessions)")
	}
	sessions, errs := replay.LoadSessionDir(dir)
	for _, err := range errs {
		monitoring.Logf("skipping session: %v", err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no replayable sessions in %s", dir)
	}
	return sessions, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	sessionsDir := fs.String("sessions", "", "directory of labeled session JSON files")
	preset := fs.String("preset", "", "built-in preset to validate")
	configPath := fs.String("config", "", "detection config JSON file to validate")
	rate := fs.Float64("rate", validate.DefaultRiskyRateThreshold, "violations/min above which a session classifies risky")
	label := fs.String("label", "", "run label (defaults to the config name)")
	save := fs.Bool("save", false, "persist the run to the database")
	fs.Parse(args)

	cfg, name, err := resolveConfig(*preset, *configPath)
	if err != nil {
		return err
	}
	sessions, err := loadSessions(*sessionsDir)
	if err != nil {
		return err
	}

	harness := replay.NewHarness(cfg.Resolve())
	results, errs := harness.RunBatch(sessions)
	for _, err := range errs {
		monitoring.Logf("session failed: %v", err)
	}

	metrics, err := validate.ComputeMetrics(results, *rate)
	if err != nil {
		return err
	}

	if *label == "" {
		*label = name
	}
	run := &db.ValidationRun{
		Label:         *label,
		Config:        cfg,
		RateThreshold: *rate,
		Metrics:       metrics,
		Results:       results,
	}

	if *save {
		database, err := db.Open(*dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		id, err := database.SaveValidationRun(run)
		if err != nil {
			return err
		}
		monitoring.Logf("saved validation run %s", id)
	}

	return printJSON(run)
}

func cmdCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	sessionsDir := fs.String("sessions", "", "directory of labeled session JSON files")
	basePreset := fs.String("baseline-preset", "", "baseline preset")
	baseConfig := fs.String("baseline-config", "", "baseline config JSON file")
	candPreset := fs.String("candidate-preset", "", "candidate preset")
	candConfig := fs.String("candidate-config", "", "candidate config JSON file")
	rate := fs.Float64("rate", validate.DefaultRiskyRateThreshold, "violations/min above which a session classifies risky")
	htmlOut := fs.String("html", "", "also write an HTML report to this path")
	fs.Parse(args)

	baseline, baseName, err := resolveConfig(*basePreset, *baseConfig)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	candidate, candName, err := resolveConfig(*candPreset, *candConfig)
	if err != nil {
		return fmt.Errorf("candidate: %w", err)
	}
	sessions, err := loadSessions(*sessionsDir)
	if err != nil {
		return err
	}

	baseResults, errs := replay.NewHarness(baseline.Resolve()).RunBatch(sessions)
	for _, err := range errs {
		monitoring.Logf("baseline session failed: %v", err)
	}
	candResults, errs := replay.NewHarness(candidate.Resolve()).RunBatch(sessions)
	for _, err := range errs {
		monitoring.Logf("candidate session failed: %v", err)
	}

	report, err := validate.Compare(baseName, baseResults, candName, candResults, *rate)
	if err != nil {
		return err
	}

	if *htmlOut != "" {
		if err := validate.WriteComparisonHTML(*htmlOut, report, baseResults, candResults); err != nil {
			return err
		}
		monitoring.Logf("wrote HTML report to %s", *htmlOut)
	}

	return printJSON(report)
}

func cmdSettings(args []string) error {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	setPath := fs.String("set", "", "merge a partial config JSON file into the stored settings")
	reset := fs.Bool("reset", false, "reset stored settings to defaults")
	name := fs.String("name", db.DefaultSettingsName, "settings record name")
	fs.Parse(args)

	database, err := db.Open(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	manager := config.NewManager(db.NewSettingsStore(database, *name), config.EmptyDetectionConfig())
	if err := manager.Load(); err != nil {
		return err
	}

	switch {
	case *reset:
		if err := manager.ResetToDefaults(); err != nil {
			return err
		}
		monitoring.Logf("settings %q reset to defaults", *name)
	case *setPath != "":
		partial, err := os.ReadFile(*setPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", *setPath, err)
		}
		overlay := config.EmptyDetectionConfig()
		if err := json.Unmarshal(partial, overlay); err != nil {
			return fmt.Errorf("failed to parse %s: %w", *setPath, err)
		}
		if err := manager.Save(overlay); err != nil {
			return err
		}
		monitoring.Logf("settings %q updated", *name)
	}

	return printJSON(struct {
		Name     string                  `json:"name"`
		Stored   *config.DetectionConfig `json:"stored"`
		Resolved config.Settings         `json:"resolved"`
	}{*name, manager.CurrentConfig(), manager.Current()})
}

func cmdPresets(args []string) error {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	fs.Parse(args)

	presets := config.GetPresets()
	out := make(map[string]config.Settings, len(presets))
	for name, c := range presets {
		out[name] = c.Resolve()
	}
	return printJSON(out)
}

func cmdTrace(args []string) error {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	sessionPath := fs.String("session", "", "session JSON file to trace")
	preset := fs.String("preset", "", "preset to replay with")
	configPath := fs.String("config", "", "config JSON file to replay with")
	output := fs.String("o", "trace.png", "output PNG path")
	fs.Parse(args)

	if *sessionPath == "" {
		return fmt.Errorf("a session file is required (-session)")
	}
	cfg, _, err := resolveConfig(*preset, *configPath)
	if err != nil {
		return err
	}
	session, err := replay.LoadSession(*sessionPath)
	if err != nil {
		return err
	}
	if err := validate.PlotSessionTrace(session, cfg.Resolve(), *output); err != nil {
		return err
	}
	monitoring.Logf("wrote trace plot to %s", *output)
	return nil
}

func cmdRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum runs to list")
	show := fs.String("show", "", "print one run in full, by ID")
	compareIDs := fs.String("compare", "", "compare two stored runs: <baseline-id>,<candidate-id>")
	rate := fs.Float64("rate", validate.DefaultRiskyRateThreshold, "violations/min above which a session classifies risky")
	fs.Parse(args)

	database, err := db.Open(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	switch {
	case *show != "":
		run, err := database.GetValidationRun(*show)
		if err != nil {
			return err
		}
		return printJSON(run)

	case *compareIDs != "":
		ids := strings.SplitN(*compareIDs, ",", 2)
		if len(ids) != 2 || ids[0] == "" || ids[1] == "" {
			return fmt.Errorf("usage: runs -compare <baseline-id>,<candidate-id>")
		}
		baseline, err := database.GetValidationRun(ids[0])
		if err != nil {
			return err
		}
		candidate, err := database.GetValidationRun(ids[1])
		if err != nil {
			return err
		}
		report, err := validate.Compare(baseline.Label, baseline.Results, candidate.Label, candidate.Results, *rate)
		if err != nil {
			return err
		}
		return printJSON(report)

	default:
		runs, err := database.ListValidationRuns(*limit)
		if err != nil {
			return err
		}
		return printJSON(runs)
	}
}

func cmdMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Parse(args)

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	action := "status"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	switch action {
	case "up":
		if err := database.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := database.MigrateDown(); err != nil {
			return err
		}
	case "force":
		if fs.NArg() < 2 {
			return fmt.Errorf("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q", fs.Arg(1))
		}
		if err := database.MigrateForce(version); err != nil {
			return err
		}
	case "status":
		// Fall through to the status print below.
	default:
		return fmt.Errorf("unknown migrate action %q (up, down, force, status)", action)
	}

	version, dirty, err := database.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Printf("version: %d\ndirty: %v\n", version, dirty)
	return nil
}
