// Package main provides the entry point for the masonry gallery.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	fyneapp "fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"masonry-gallery/internal/app"
	"masonry-gallery/internal/cli"
	"masonry-gallery/internal/logging"
	"masonry-gallery/internal/metrics"
	"masonry-gallery/internal/version"
	"masonry-gallery/ui/mainwindow"
	"masonry-gallery/ui/prefs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := cli.Parse(args, version.String())
	if err != nil {
		return err
	}
	cfg, err := flags.Load()
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()
	log := logging.Named("main")
	log.Info("starting", zap.String("version", version.Version), zap.Int("workers", cfg.Workers))

	if flags.MetricsAddr != "" {
		go serveMetrics(log, flags.MetricsAddr)
	}

	appPrefs := prefs.Load()
	if flags.Columns == 0 {
		if n := appPrefs.Columns(cfg.Columns); n >= 3 && n <= 6 {
			cfg.Columns = n
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := app.NewState(cfg, app.Deps{})
	state.Start(ctx)

	fyneApp := fyneapp.NewWithID(version.AppID)
	fyneApp.Settings().SetTheme(&mainwindow.GalleryTheme{})
	win := mainwindow.New(fyneApp, state, appPrefs)

	folder := flags.Folder
	if folder == "" {
		folder = appPrefs.LastFolder()
	}
	if folder != "" {
		win.LoadFolder(folder)
	}

	go func() {
		<-ctx.Done()
		fyneApp.Quit()
	}()

	win.ShowAndRun()

	if !state.Shutdown() {
		log.Warn("thumbnail workers still running at exit")
	}
	return nil
}

func serveMetrics(log *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", zap.Error(err))
	}
}
