package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mairie/internal/server"

	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the front office web UI",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(cCtx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ensureCookieKeys(a.config, a.logger)

	archive, err := a.snapshotArchive(ctx)
	if err != nil {
		return err
	}

	srv, err := server.New(a.config, a.logger, a.manager, archive)
	if err != nil {
		return err
	}

	go sweepHourly(ctx, a)

	go func() {
		a.logger.WithField("port", a.config.ServerPort).Infof("server starting http://localhost:%d", a.config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

// sweepHourly re-runs the archival sweep while the server stays up across a
// week boundary. Opening the app already ran it once.
func sweepHourly(ctx context.Context, a *app) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.manager.RunArchivalSweep(ctx, a.manager.Now()); err != nil {
				a.logger.WithError(err).Error("scheduled archival sweep failed")
			}
		}
	}
}
