// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/meetupsync/internal/api"
	"github.com/tomtom215/meetupsync/internal/cache"
	"github.com/tomtom215/meetupsync/internal/config"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/session"
	"github.com/tomtom215/meetupsync/internal/supervisor"
	"github.com/tomtom215/meetupsync/internal/supervisor/services"
	ws "github.com/tomtom215/meetupsync/internal/websocket"
)

const readHeaderTimeout = 10 * time.Second

func buildWatchCmd(a *app) *cobra.Command {
	var focus int64
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow meetup streams and serve the live state",
		Long: `Follow the global status stream (when STREAM_GLOBAL_URL is set) and,
with --focus, one meetup's stream. Cache changes are pushed to map clients
over the companion API when SERVER_ENABLED is true.

Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if focus < 0 {
				return fmt.Errorf("invalid --focus %d: must be a positive meetup id", focus)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, focus)
		},
	}
	cmd.Flags().Int64Var(&focus, "focus", 0, "Meetup id to follow from startup")
	return cmd
}

func (a *app) watch(ctx context.Context, focus int64) error {
	sess, err := session.New(a.cfg)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	tree, err := newWatchTree(a.cfg, sess)
	if err != nil {
		return err
	}

	unsubscribe := sess.Store().Subscribe(logChanges)
	defer unsubscribe()

	if focus > 0 {
		sess.Focus(focus)
	}

	logging.Info().
		Int64("focus", focus).
		Bool("global_stream", sess.GlobalEnabled()).
		Bool("server", a.cfg.Server.Enabled).
		Str("addr", a.cfg.Server.Addr).
		Msg("watching meetup streams")

	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("services did not stop within the shutdown timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	logging.Info().Msg("stopped")
	return nil
}

// newWatchTree lays the session, push hub and companion server out on a
// supervisor tree. Without a companion server only the streams layer runs.
func newWatchTree(cfg *config.Config, sess *session.Session) (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFromConfig(cfg.Supervisor))
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddStreamService(services.NewSessionService(sess))

	if !cfg.Server.Enabled {
		return tree, nil
	}

	hub := ws.NewHub()
	tree.AddPushService(services.NewPushHubService(hub, sess.Store()))

	handler := api.NewHandler(sess, hub, cfg.Server)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(cfg.Server)))
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr, cfg.Server.ShutdownTimeout))

	return tree, nil
}

func logChanges(changes []cache.Change) {
	if !logging.IsLevelEnabled(zerolog.DebugLevel) {
		return
	}
	for _, c := range changes {
		logging.Debug().Str("key", c.Key.String()).Str("op", string(c.Op)).Msg("cache changed")
	}
}
