package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/obsolescence-radar/pkg/config"
	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/export"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
	"github.com/dd0wney/obsolescence-radar/pkg/retrieval"
	"github.com/dd0wney/obsolescence-radar/pkg/snapshot"
)

// passFlags are shared by compute and export.
type passFlags struct {
	configPath string
	date       string
	apps       string
	asJSON     bool
}

func parsePassFlags(name string, args []string, stderr io.Writer) (*passFlags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	pf := &passFlags{}
	fs.StringVar(&pf.configPath, "config", os.Getenv("RADAR_CONFIG"), "YAML configuration file")
	fs.StringVar(&pf.date, "date", "", "Reference date, YYYY-MM-DD or YYYYMMDD (default: engine.ref_date or today)")
	fs.StringVar(&pf.apps, "apps", "", "Comma-separated visible Application ids (default: all)")
	fs.BoolVar(&pf.asJSON, "json", false, "Print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return pf, nil
}

// visibleIDs splits the -apps value, dropping empty entries.
func visibleIDs(apps string) []string {
	var ids []string
	for _, id := range strings.Split(apps, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func resolveRefDate(flagValue string, cfg *config.Config) (int, error) {
	if flagValue != "" {
		return engine.ParseRefDate(flagValue)
	}
	return cfg.StartDate(time.Now), nil
}

func setup(configPath string, stderr io.Writer) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(stderr, cfg.Log.Level).With(logging.String("service", "radar"))
	return cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// handleFetch downloads the inventory and saves it as the snapshot
func handleFetch(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("RADAR_CONFIG"), "YAML configuration file")
	quiet := fs.Bool("quiet", false, "Do not print download progress")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := setup(*configPath, stderr)
	if err != nil {
		return err
	}
	if err := cfg.RequireWorkspace(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	exec := retrieval.NewWorkspaceExecutor(ctx, retrieval.WorkspaceOptions{
		Host:     cfg.Workspace.Host,
		APIToken: cfg.Workspace.APIToken,
		Timeout:  cfg.Workspace.Timeout,
	})
	fetcher := retrieval.NewFetcher(exec, retrieval.Config{
		PageSize: cfg.Workspace.PageSize,
		Logger:   logger,
		Progress: progressPrinter(stdout, *quiet),
	})

	inv, err := fetcher.FetchInventory(ctx)
	if err != nil {
		return err
	}
	if err := snapshot.NewStore(cfg.Snapshot.Dir, logger).Save(inv); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Saved %d applications and %d IT components to %s\n",
		len(inv.Applications), len(inv.ITComponents), cfg.Snapshot.Dir)
	return nil
}

// progressPrinter prints one line per page.
func progressPrinter(w io.Writer, quiet bool) retrieval.ProgressFunc {
	if quiet {
		return nil
	}
	var mu sync.Mutex
	return func(p retrieval.Progress) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%-12s %d/%d\n", p.Type, p.Downloaded, p.TotalCount)
	}
}

// computePass loads the snapshot and runs one pass
func computePass(pf *passFlags, cfg *config.Config, logger logging.Logger) (*engine.Result, error) {
	refDate, err := resolveRefDate(pf.date, cfg)
	if err != nil {
		return nil, err
	}

	inv, err := snapshot.NewStore(cfg.Snapshot.Dir, logger).Load()
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return nil, fmt.Errorf("%w in %s (run \"radar fetch\" first)", err, cfg.Snapshot.Dir)
	}
	if err != nil {
		return nil, err
	}

	return engine.New(logger, nil).Compute(graph.BuildInventory(inv), refDate, engine.VisibleSet(visibleIDs(pf.apps)))
}

// handleCompute prints the result of one pass
func handleCompute(args []string, stdout, stderr io.Writer) error {
	pf, err := parsePassFlags("compute", args, stderr)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(pf.configPath, stderr)
	if err != nil {
		return err
	}

	res, err := computePass(pf, cfg, logger)
	if err != nil {
		return err
	}
	if pf.asJSON {
		return writeJSON(stdout, res)
	}
	return writeTable(stdout, res)
}

// handleExport writes the result of one pass to PostgreSQL
func handleExport(args []string, stdout, stderr io.Writer) error {
	pf, err := parsePassFlags("export", args, stderr)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(pf.configPath, stderr)
	if err != nil {
		return err
	}
	if err := cfg.RequireExport(); err != nil {
		return err
	}

	res, err := computePass(pf, cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := export.Connect(ctx, cfg.Export.DSN)
	if err != nil {
		return err
	}
	exporter := export.NewPostgresExporter(pool, logger)
	defer exporter.Close()

	if err := exporter.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := exporter.Export(ctx, res); err != nil {
		return err
	}

	apps, comps, _ := res.Graph.Counts()
	fmt.Fprintf(stdout, "Exported run %s (%d applications, %d IT components)\n", res.RunID, apps, comps)
	return nil
}
