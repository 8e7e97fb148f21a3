package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/framecast/internal/config"
	"git.home.luguber.info/inful/framecast/internal/daemon"
	"git.home.luguber.info/inful/framecast/internal/history"
	"git.home.luguber.info/inful/framecast/internal/pipeline"
	"git.home.luguber.info/inful/framecast/internal/render"
	"git.home.luguber.info/inful/framecast/internal/state"
	"git.home.luguber.info/inful/framecast/internal/theme"
	"git.home.luguber.info/inful/framecast/internal/tv"
)

var CLI struct {
	EnvFile string `short:"e" help:"Path to .env file with FRAME_* variables" default:".env"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Push struct {
		Theme string `short:"t" help:"Theme name, overrides FRAME_THEME"`
	} `cmd:"" default:"1" help:"Render the content file and push it to the TV"`

	Off struct{} `cmd:"" help:"Turn the TV off with a long power-key press"`

	Artmode struct{} `cmd:"" help:"Ensure the TV is in art mode, waking it if needed"`

	Daemon struct{} `cmd:"" help:"Watch the content file and refresh the TV continuously"`

	History struct {
		Limit int `short:"n" help:"Maximum entries to show" default:"20"`
	} `cmd:"" help:"Show recent uploads"`

	Themes struct{} `cmd:"" help:"List available themes"`
}

func main() {
	ctx := kong.Parse(&CLI)

	if err := config.LoadEnvFile(CLI.EnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "framecast: failed to load env file: %v\n", err)
		os.Exit(1)
	}

	var err error
	switch ctx.Command() {
	case "push":
		err = runPush()
	case "off":
		err = runOff()
	case "artmode":
		err = runArtmode()
	case "daemon":
		err = runDaemon()
	case "history":
		err = runHistory()
	case "themes":
		err = runThemes()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "framecast: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig validates the environment and installs the default logger.
func loadConfig(needContent bool) (*config.Config, error) {
	cfg, err := config.Load(needContent)
	if err != nil {
		return nil, err
	}
	config.SetupLogger(cfg.LogLevel, cfg.LogFormat, CLI.Verbose)
	return cfg, nil
}

func newTVClient(cfg *config.Config) *tv.Client {
	return tv.NewClient(cfg.TVHost, tv.Options{
		ArtPort:    cfg.ArtPort,
		RemotePort: cfg.RemotePort,
		MAC:        cfg.TVMAC,
	})
}

// buildPusher wires the full push pipeline. The returned closer releases the
// history database and may be nil.
func buildPusher(cfg *config.Config) (*pipeline.Pusher, func()) {
	client := newTVClient(cfg)
	connect := func(ctx context.Context) (pipeline.ArtSession, error) {
		return client.Connect(ctx)
	}

	var recorder pipeline.Recorder
	closer := func() {}
	hist, err := history.Open(cfg.HistoryPath())
	if err != nil {
		// History is informational; a broken database must not block pushes.
		slog.Warn("Upload history unavailable", "path", cfg.HistoryPath(), "error", err)
	} else {
		recorder = hist
		closer = func() { _ = hist.Close() }
	}

	p := pipeline.New(cfg,
		theme.NewResolver(cfg.ThemeDir),
		render.NewEngine(nil),
		state.NewStore(cfg.StateDir),
		recorder,
		connect,
		nil,
	)
	return p, closer
}

func runPush() error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if CLI.Push.Theme != "" {
		cfg.Theme = CLI.Push.Theme
	}

	pusher, closer := buildPusher(cfg)
	defer closer()

	contentID, err := pusher.Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(contentID)
	return nil
}

func runOff() error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	return newTVClient(cfg).TurnOff(context.Background())
}

func runArtmode() error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	return newTVClient(cfg).EnsureArtMode(context.Background())
}

func runDaemon() error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	pusher, closer := buildPusher(cfg)
	defer closer()

	d, err := daemon.New(cfg, pusher)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	slog.Info("Daemon started, waiting for shutdown signal...")

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	slog.Info("Daemon stopped")
	return nil
}

func runHistory() error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	hist, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer hist.Close()

	records, err := hist.List(context.Background(), CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no uploads recorded")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%s  %-16s  theme=%s  %s\n",
			rec.UploadedAt.Format(time.RFC3339), rec.ContentID, rec.Theme, rec.Source)
	}
	return nil
}

func runThemes() error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	themes, err := theme.NewResolver(cfg.ThemeDir).List()
	if err != nil {
		return err
	}
	for _, th := range themes {
		if th.Description != "" {
			fmt.Printf("%-16s %s\n", th.Name, th.Description)
		} else {
			fmt.Println(th.Name)
		}
	}
	return nil
}
