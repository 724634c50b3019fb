// @title           Todo API
// @version         1.0
// @description     Todo list API: create, list, update and delete todos.
// @host            localhost:5000
// @BasePath        /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todolist/internal/app"
	"todolist/internal/config"
	"todolist/internal/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Options{Prefix: "api"}).Fatal("config", "err", err)
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Prefix: "api"})
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Info("config loaded, connecting to store", "driver", cfg.Store.Driver, "env", cfg.App.Env)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("app init", "err", err)
	}
	logger.Info("app ready, starting HTTP server")
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.Info("shutdown signal", "signal", sig.String())
	case err := <-serveErr:
		logger.Error("HTTP server error", "err", err)
		exitCode = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown", "err", err)
		exitCode = 1
	}
	if err := application.Close(ctx); err != nil {
		logger.Error("app close", "err", err)
		exitCode = 1
	}
	cancel()
	logger.Info("shutdown complete")
	os.Exit(exitCode)
}
