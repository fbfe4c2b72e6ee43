// Command rdcfit fits a molecular alignment tensor to residual dipolar
// couplings read from a CSV file and writes the tensor, its orientation and
// fit statistics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/nanalysis/nmrfx-sub023/internal/config"
	"github.com/nanalysis/nmrfx-sub023/internal/fsutil"
	"github.com/nanalysis/nmrfx-sub023/internal/monitoring"
	"github.com/nanalysis/nmrfx-sub023/internal/rdc"
	"github.com/nanalysis/nmrfx-sub023/internal/rdcio"
	"github.com/nanalysis/nmrfx-sub023/internal/report"
	"github.com/nanalysis/nmrfx-sub023/internal/store"
	"github.com/nanalysis/nmrfx-sub023/internal/timeutil"
	"github.com/nanalysis/nmrfx-sub023/internal/units"
	"github.com/nanalysis/nmrfx-sub023/internal/version"
)

var logf = monitoring.Prefixed("rdcfit")

// Config holds the command-line configuration.
type Config struct {
	InputPath     string
	ConfigPath    string
	FixedDistance bool
	JSONPath      string
	PNGPath       string
	HTMLPath      string
	CSVPath       string
	DBPath        string
	Label         string
	AngleUnits    string
	CouplingUnits string
	History       int
	ShowID        string
	DeleteID      string
	Migrate       string
	Verbose       bool
	ShowVersion   bool

	// Overrides are nil unless the flag was given explicitly.
	MaxAttempts *int
	Seed        *uint64
	Scale       *float64
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("rdcfit: %v", err)
	}

	deps := deps{fs: fsutil.OSFileSystem{}, clock: timeutil.RealClock{}, stdout: os.Stdout}
	if err := run(context.Background(), cfg, deps); err != nil {
		log.Fatalf("rdcfit: %s: %v", classify(err), err)
	}
}

func parseFlags(args []string) (Config, error) {
	var (
		cfg         Config
		maxAttempts int
		seed        uint64
		scale       float64
	)
	fs := flag.NewFlagSet("rdcfit", flag.ContinueOnError)
	fs.StringVar(&cfg.InputPath, "in", "", "CSV measurement set (label,x,y,z,exp,err,max,pair)")
	fs.StringVar(&cfg.ConfigPath, "config", "", "JSON fit configuration (see "+config.DefaultConfigPath+")")
	fs.IntVar(&maxAttempts, "max-attempts", rdc.DefaultMaxAttempts, "Total number of solves allowed, resamples included")
	fs.Uint64Var(&seed, "seed", rdc.DefaultSeed, "Seed for error resampling")
	fs.Float64Var(&scale, "scale", 1, "Population scale applied to the tensor, in (0, 1]")
	fs.BoolVar(&cfg.FixedDistance, "fixed-distance", false, "Derive coupling limits from reference bond lengths instead of vector lengths")
	fs.StringVar(&cfg.JSONPath, "json", "", "Write the report as JSON to this path")
	fs.StringVar(&cfg.PNGPath, "png", "", "Write a correlation plot (PNG) to this path")
	fs.StringVar(&cfg.HTMLPath, "html", "", "Write an interactive correlation chart (HTML) to this path")
	fs.StringVar(&cfg.CSVPath, "csv", "", "Write observations with back-calculated couplings to this path")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite database for run history")
	fs.StringVar(&cfg.Label, "label", "", "Label stored with the run")
	fs.StringVar(&cfg.AngleUnits, "angle-units", units.Degrees, "Euler angle units: "+units.GetValidAngleUnitsString())
	fs.StringVar(&cfg.CouplingUnits, "coupling-units", units.Hz, "Coupling units: "+units.GetValidCouplingUnitsString())
	fs.IntVar(&cfg.History, "history", 0, "List the N most recent runs from -db (filtered by -label) and exit")
	fs.StringVar(&cfg.ShowID, "show", "", "Print the stored run with this id from -db and exit")
	fs.StringVar(&cfg.DeleteID, "delete", "", "Delete the stored run with this id from -db and exit")
	fs.StringVar(&cfg.Migrate, "migrate", "", "Run a schema action on -db (up, down, version) and exit")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log solver diagnostics")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-attempts":
			cfg.MaxAttempts = &maxAttempts
		case "seed":
			cfg.Seed = &seed
		case "scale":
			cfg.Scale = &scale
		}
	})

	if cfg.ShowVersion {
		return cfg, nil
	}
	if !units.IsValidAngle(cfg.AngleUnits) {
		return Config{}, fmt.Errorf("invalid -angle-units %q (valid: %s)", cfg.AngleUnits, units.GetValidAngleUnitsString())
	}
	if !units.IsValidCoupling(cfg.CouplingUnits) {
		return Config{}, fmt.Errorf("invalid -coupling-units %q (valid: %s)", cfg.CouplingUnits, units.GetValidCouplingUnitsString())
	}
	if cfg.storeCommand() {
		if cfg.DBPath == "" {
			return Config{}, errors.New("-history, -show, -delete and -migrate require -db")
		}
		switch cfg.Migrate {
		case "", "up", "down", "version":
		default:
			return Config{}, fmt.Errorf("invalid -migrate %q (valid: up, down, version)", cfg.Migrate)
		}
		return cfg, nil
	}
	if cfg.InputPath == "" {
		return Config{}, errors.New("-in is required")
	}
	return cfg, nil
}

// storeCommand reports whether cfg asks for a run-store action instead of
// a fit.
func (c Config) storeCommand() bool {
	return c.History > 0 || c.ShowID != "" || c.DeleteID != "" || c.Migrate != ""
}

type deps struct {
	fs     fsutil.FileSystem
	clock  timeutil.Clock
	stdout io.Writer
}

func run(ctx context.Context, cfg Config, d deps) error {
	if cfg.ShowVersion {
		_, err := fmt.Fprintln(d.stdout, version.String())
		return err
	}
	switch {
	case cfg.Migrate != "":
		return migrateStore(cfg, d)
	case cfg.ShowID != "":
		return showRun(ctx, cfg, d)
	case cfg.DeleteID != "":
		return deleteRun(ctx, cfg, d)
	case cfg.History > 0:
		return listHistory(ctx, cfg, d)
	}

	fitCfg := config.EmptyFitConfig()
	if cfg.ConfigPath != "" {
		loaded, err := config.LoadFitConfig(cfg.ConfigPath)
		if err != nil {
			return err
		}
		fitCfg = loaded
	}
	fitCfg.Override(cfg.MaxAttempts, cfg.Seed, cfg.Scale)
	if err := fitCfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	obs, err := rdcio.ReadFile(d.fs, cfg.InputPath, rdcio.Options{FixedDistance: cfg.FixedDistance})
	if err != nil {
		return err
	}

	if budget := fitCfg.GetTimeBudget(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	opts := fitCfg.FitOptions()
	if cfg.Verbose {
		opts.Observer = rdc.LogfObserver(monitoring.Logf)
	}

	start := d.clock.Now()
	res, err := rdc.Fit(ctx, obs, opts)
	if err != nil {
		return err
	}
	logf("fitted %d couplings in %s (%d attempt(s))",
		len(obs), d.clock.Since(start).Round(time.Microsecond), res.Solution.Attempts)

	rep := report.New(res, obs, report.Options{
		Label:         cfg.Label,
		AngleUnits:    cfg.AngleUnits,
		CouplingUnits: cfg.CouplingUnits,
	})

	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath, d.clock)
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer st.Close()
		if _, err := st.InsertRun(ctx, rep); err != nil {
			return err
		}
	}

	if err := rep.WriteText(d.stdout); err != nil {
		return err
	}
	return writeOutputs(cfg, d.fs, rep, obs)
}

func writeOutputs(cfg Config, fsys fsutil.FileSystem, rep *report.Report, obs []rdc.Observation) error {
	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{cfg.JSONPath, rep.WriteJSON},
		{cfg.PNGPath, func(w io.Writer) error { return rep.WritePNG(w, report.PlotWidth, report.PlotHeight) }},
		{cfg.HTMLPath, rep.WriteHTML},
		{cfg.CSVPath, func(w io.Writer) error { return rdcio.Write(w, obs) }},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := fsutil.WriteWith(fsys, out.path, out.write); err != nil {
			return fmt.Errorf("write %s: %w", out.path, err)
		}
		logf("wrote %s", out.path)
	}
	return nil
}

func listHistory(ctx context.Context, cfg Config, d deps) error {
	st, err := store.Open(cfg.DBPath, d.clock)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, cfg.Label, cfg.History)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(d.stdout, "%s  %s  %-12s n=%-4d Q=%s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Label, r.N, formatStat(r.QRMS))
	}
	return nil
}

func showRun(ctx context.Context, cfg Config, d deps) error {
	st, err := store.Open(cfg.DBPath, d.clock)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer st.Close()

	run, err := st.GetRun(ctx, cfg.ShowID)
	if err != nil {
		return err
	}
	if err := run.Report.WriteText(d.stdout); err != nil {
		return err
	}
	// The stored report carries no bond vectors, so there is nothing to
	// write as CSV.
	cfg.CSVPath = ""
	return writeOutputs(cfg, d.fs, run.Report, nil)
}

func deleteRun(ctx context.Context, cfg Config, d deps) error {
	st, err := store.Open(cfg.DBPath, d.clock)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer st.Close()

	if err := st.DeleteRun(ctx, cfg.DeleteID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(d.stdout, "deleted run %s\n", cfg.DeleteID)
	return err
}

func migrateStore(cfg Config, d deps) error {
	st, err := store.OpenForMigration(cfg.DBPath, d.clock)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer st.Close()

	switch cfg.Migrate {
	case "up":
		err = st.MigrateUp()
	case "down":
		err = st.MigrateDown()
	}
	if err != nil {
		return err
	}
	version, dirty, err := st.MigrateVersion()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(d.stdout, "schema version %d (dirty=%t)\n", version, dirty)
	return err
}

func formatStat(v float64) string {
	if !report.Float(v).Valid() {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

// classify names the failure class for the exit message.
func classify(err error) string {
	switch {
	case errors.Is(err, rdc.ErrDegenerateInput):
		return "degenerate input"
	case errors.Is(err, rdc.ErrUnresolvableTensor):
		return "unresolvable tensor"
	case errors.Is(err, rdc.ErrDegenerateRotation):
		return "degenerate rotation"
	case errors.Is(err, context.DeadlineExceeded):
		return "time budget exceeded"
	case errors.Is(err, store.ErrRunNotFound):
		return "run not found"
	default:
		return "error"
	}
}
