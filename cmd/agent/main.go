package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thereceipt/print-agent/internal/api"
	"github.com/thereceipt/print-agent/internal/artifact"
	"github.com/thereceipt/print-agent/internal/command"
	"github.com/thereceipt/print-agent/internal/config"
	"github.com/thereceipt/print-agent/internal/directory"
	"github.com/thereceipt/print-agent/internal/dispatch"
	"github.com/thereceipt/print-agent/internal/layout"
	"github.com/thereceipt/print-agent/internal/logger"
	"github.com/thereceipt/print-agent/internal/printer"
	"github.com/thereceipt/print-agent/internal/receipt"
	"github.com/thereceipt/print-agent/internal/renderer"
	"github.com/thereceipt/print-agent/internal/tui"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	configFile := flag.String("config", "", "path to a print-agent.toml file")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	showTUI := flag.Bool("tui", false, "show the terminal dashboard")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(Version)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *showTUI {
		cfg.UI.TUI = true
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "print-agent: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	var dashboard *tui.TViewApp
	var extra []io.Writer
	if cfg.UI.TUI {
		dashboard = tui.NewTViewApp(nil, cfg.Addr())
		extra = append(extra, dashboard.LogWriter())
		if logCfg.Output == "stdout" || logCfg.Output == "stderr" {
			logCfg.Output = "none"
		}
	}

	log, err := logger.New(logCfg, extra...)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	log.Info("print agent starting", zap.String("version", Version), zap.String("addr", cfg.Addr()))

	// Rendering
	loc, err := cfg.Render.Location()
	if err != nil {
		return err
	}
	store, err := artifact.NewStore(cfg.Render.ArtifactDir)
	if err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	opts := layout.DefaultOptions()
	opts.PaperWidth = cfg.Render.PaperWidth
	opts.Location = loc
	opts.LogoPath = cfg.Render.LogoPath
	opts.FooterCode = cfg.Render.FooterCode
	raster := renderer.New(renderer.FontSet{Regular: cfg.Render.FontRegular, Bold: cfg.Render.FontBold})
	receipts := receipt.New(opts, raster, store, log)

	// Printing
	system := printer.NewSystem(printer.ExecRunner{})
	router := printer.NewRouter(system, cfg.Printers.RawDots, log)
	discovery := printer.NewDiscovery(system, cfg.Printers.ScanUSB, cfg.Printers.ScanSerial, log)
	dir := directory.New(discovery, directory.NewCache(cfg.Printers.CacheFile), log)
	dispatcher := dispatch.New(receipts, router, log)

	server := api.NewServer(dispatcher, dir, receipts, log)
	dispatcher.Subscribe(server.BroadcastOutcome)
	dir.OnUpdated(server.BroadcastPrinters)

	watcher := directory.NewWatcher(dir, cfg.Printers.RefreshInterval, log)
	watcher.OnAdded(server.BroadcastPrinterAdded)
	watcher.OnRemoved(server.BroadcastPrinterRemoved)

	if dashboard != nil {
		dashboard.SetExecutor(command.NewExecutor(dispatcher, dir, receipts))
		dispatcher.Subscribe(dashboard.RecordOutcome)
		dir.OnUpdated(dashboard.SetPrinters)
	}

	printers := dir.Refresh(ctx)
	log.Info("printers discovered", zap.Int("count", len(printers)), zap.String("cache", cfg.Printers.CacheFile))

	watcher.Start(ctx, printers)
	defer watcher.Stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(cfg.Addr())
	}()

	tuiDone := make(chan struct{})
	if dashboard != nil {
		go func() {
			defer close(tuiDone)
			if err := dashboard.Run(ctx); err != nil {
				log.Error("dashboard failed", zap.Error(err))
			}
		}()
	}

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	case <-tuiDone:
		log.Info("dashboard closed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
	}
	return nil
}
