// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/meetupsync/internal/config"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/metrics"
	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/session"
	"github.com/tomtom215/meetupsync/internal/viewport"
)

// meetupSession is what the one-shot commands need from a session.
type meetupSession interface {
	LoadViewport(ctx context.Context, b viewport.BBox) ([]models.Meetup, error)
	Detail(ctx context.Context, id int64) (*models.MeetupDetail, error)
	Join(ctx context.Context, id int64) (*models.AttendanceResponse, error)
	Leave(ctx context.Context, id int64) (*models.AttendanceResponse, error)
	ConfirmPOI(ctx context.Context, id int64, req models.ConfirmPOIRequest) (*models.ConfirmPOIResponse, error)
	Finish(ctx context.Context, id int64) (*models.StatusResponse, error)
	Cancel(ctx context.Context, id int64) (*models.StatusResponse, error)
	Close()
}

// app carries state shared by every command.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config

	// loadConfig and openSession are replaced in tests.
	loadConfig  func() (*config.Config, error)
	openSession func(cfg *config.Config) (meetupSession, error)
}

func newApp() *app {
	return &app{
		loadConfig: config.Load,
		openSession: func(cfg *config.Config) (meetupSession, error) {
			s, err := session.New(cfg)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

func buildRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meetupsync",
		Short: "Live meetup map state synchronization",
		Long: `meetupsync keeps meetup status, midpoint, points of interest and
attendee counts in sync with the backend's push streams.

Use watch to follow streams and serve the cached state to a map UI, or the
one-shot commands to read and change a single meetup.`,
		Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (or set CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(
		buildWatchCmd(a),
		buildConfigCmd(a),
		buildViewportCmd(a),
		buildDetailCmd(a),
		buildJoinCmd(a),
		buildLeaveCmd(a),
		buildConfirmPOICmd(a),
		buildFinishCmd(a),
		buildCancelCmd(a),
	)
	return rootCmd
}

// setup loads configuration and initializes logging before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, a.configPath); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	level := cfg.EffectiveLogLevel()
	if a.logLevel != "" {
		level = a.logLevel
	}
	logging.Init(logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    cmd.ErrOrStderr(),
	})
	metrics.SetAppInfo(version, runtime.Version())

	logging.Debug().
		Str("api_base_url", cfg.API.BaseURL).
		Bool("global_stream", cfg.GlobalStreamEnabled()).
		Bool("stream_debug", cfg.Stream.Debug).
		Msg("configuration loaded")
	return nil
}

// withSession opens a session for the duration of fn.
func (a *app) withSession(fn func(meetupSession) error) error {
	sess, err := a.openSession(a.cfg)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()
	return fn(sess)
}

func parseMeetupID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid meetup id %q: must be a positive integer", arg)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
