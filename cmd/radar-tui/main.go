package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/obsolescence-radar/pkg/config"
	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
	"github.com/dd0wney/obsolescence-radar/pkg/pubsub"
	"github.com/dd0wney/obsolescence-radar/pkg/snapshot"
)

func main() {
	configPath := flag.String("config", os.Getenv("RADAR_CONFIG"), "YAML configuration file")
	logPath := flag.String("log", "", "Write logs to this file (default: discard)")
	flag.Parse()

	if err := runTUI(*configPath, *logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(configPath, logPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	logger := logging.NewNopLogger()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = logging.NewLogger(f, cfg.Log.Level).With(logging.String("service", "radar-tui"))
	}

	inv, err := snapshot.NewStore(cfg.Snapshot.Dir, logger).Load()
	if err != nil {
		return err
	}

	start := cfg.StartDate(time.Now)
	bus := pubsub.New[engine.Update](pubsub.DefaultBuffer)
	defer bus.Shutdown()
	state := engine.NewState(engine.New(logger, nil), bus, logger, cfg.Engine.Debounce, start)
	defer state.Close()

	m, err := initialModel(state, bus)
	if err != nil {
		return err
	}
	defer m.unsubscribe()

	if err := state.SetGraph(graph.BuildInventory(inv)); err != nil {
		return err
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
