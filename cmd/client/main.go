package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todolist/internal/client"
	"todolist/internal/config"
	"todolist/internal/logging"
	"todolist/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	apiURL := flag.String("api", "", "todo API base URL (overrides API_URL)")
	logFile := flag.String("log", "", "write client logs to this file")
	flag.Parse()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}

	logger, closeLog, err := openLogger(*logFile, cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log file:", err)
		return 2
	}
	defer func() { _ = closeLog() }()
	logger.Info("starting client", "api", cfg.APIURL)

	if err := run(cfg, logger); err != nil {
		logger.Error("client stopped", "err", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// openLogger writes to path, or discards when path is empty. The terminal
// belongs to the UI, so logs never go to stderr.
func openLogger(path string, cfg config.LogConfig) (*log.Logger, func() error, error) {
	if path == "" {
		return logging.Discard(), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithWriter(f, logging.Options{Level: cfg.Level, Format: cfg.Format, Prefix: "client"})
	return logger, f.Close, nil
}

func run(cfg config.ClientConfig, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	api := client.NewHTTPClient(cfg.APIURL, cfg.Timeout.Duration())
	err := tui.Run(ctx, client.NewSession(api, logger))
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
