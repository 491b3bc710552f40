package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/livesync/internal/server"
	"github.com/desertthunder/livesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve exposes the sync service over HTTP until the context is cancelled.
//
// POST /run triggers a reconciliation run, GET /status returns the latest
// snapshot, GET /health reports liveness.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.ValidateCredentials(); err != nil {
		return err
	}

	manifest, err := r.resolveManifest(cmd, config)
	if err != nil {
		return err
	}

	engine := tasks.NewEngine(tasks.EngineOpts{
		Source:           r.buildSource(config),
		Logger:           r.logger,
		MutationInterval: config.Sync.MutationInterval(),
	})

	snapshots, db, err := r.openSnapshots(config)
	if err != nil {
		return err
	}
	defer db.Close()

	coordinator := tasks.NewCoordinator(engine, manifest, snapshots, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewSyncHandler(coordinator, snapshots, r.logger))

	host := cmd.String("host")
	if host == "" {
		host = config.Server.Host
	}
	port := cmd.Int("port")
	if port == 0 {
		port = config.Server.Port
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	r.logger.Info("serving sync endpoints", "addr", addr, "tasks", len(manifest.Tasks))

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
