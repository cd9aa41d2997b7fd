// Command claude-adapter runs the HTTP gateway: it loads adapter.Config,
// builds the component H request handler, and serves POST /v1/messages and
// GET /health until a termination signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"claude-adapter-go/internal/adapter"
	"claude-adapter-go/internal/server"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var configPath string
	var listenAddr string
	var dev bool

	flag.StringVar(&configPath, "config", defaultConfigPath(), "The path to the configuration file.")
	flag.StringVar(&listenAddr, "listen", "", "Override the configured listen address (e.g. :8317).")
	flag.BoolVar(&dev, "dev", false, "Use a human-readable development logger instead of JSON.")
	flag.Parse()

	var zapLog *zap.Logger
	var err error
	if dev {
		zapLog, err = zap.NewDevelopment()
	} else {
		zapLog, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync() //nolint:errcheck

	log := zapr.NewLogger(zapLog).WithName("claude-adapter")

	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		log.Error(err, "unable to load configuration", "path", configPath)
		os.Exit(1)
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	if !cfg.DisableUpdateCheck {
		adapter.NewChecker(cfg.DataDir, version).CheckInBackground(log)
	}

	srv := server.New(cfg, log)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", "address", cfg.ListenAddr, "provider", cfg.Provider.Name, "toolFormat", cfg.Provider.ToolFormat)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "problem running server")
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "error during shutdown")
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return home + "/.claude-adapter/config.yaml"
}
