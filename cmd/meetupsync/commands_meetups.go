// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/viewport"
)

// detailOutput is the detail command's result.
type detailOutput struct {
	Meetup  *models.MeetupDetail `json:"meetup"`
	Actions []string             `json:"actions"`
}

func buildViewportCmd(a *app) *cobra.Command {
	var box viewport.BBox
	cmd := &cobra.Command{
		Use:   "viewport",
		Short: "List meetups inside a bounding box",
		Long: `List meetups inside a bounding box. Coordinates are rounded to four
decimal places, so nearby boxes share a cache entry.

  meetupsync viewport --min-lat 37.4 --min-lng 126.9 --max-lat 37.6 --max-lng 127.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := box.Validate(); err != nil {
				return err
			}
			return a.withSession(func(sess meetupSession) error {
				meetups, err := sess.LoadViewport(cmd.Context(), box)
				if err != nil {
					return inlineError(err)
				}
				if meetups == nil {
					meetups = []models.Meetup{}
				}
				return printJSON(cmd.OutOrStdout(), meetups)
			})
		},
	}
	cmd.Flags().Float64Var(&box.MinLat, "min-lat", 0, "Southern edge")
	cmd.Flags().Float64Var(&box.MinLng, "min-lng", 0, "Western edge")
	cmd.Flags().Float64Var(&box.MaxLat, "max-lat", 0, "Northern edge")
	cmd.Flags().Float64Var(&box.MaxLng, "max-lng", 0, "Eastern edge")
	for _, name := range []string{"min-lat", "min-lng", "max-lat", "max-lng"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func buildDetailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <meetup-id>",
		Short: "Show one meetup and the actions it allows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMeetupID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(func(sess meetupSession) error {
				detail, err := sess.Detail(cmd.Context(), id)
				if err != nil {
					return inlineError(err)
				}
				return printJSON(cmd.OutOrStdout(), detailOutput{
					Meetup:  detail,
					Actions: availableActions(detail),
				})
			})
		},
	}
}

// transitionCommands names the command that moves a meetup into each status.
var transitionCommands = map[models.Status]string{
	models.StatusConfirmed: "confirm-poi",
	models.StatusFinished:  "finish",
	models.StatusCanceled:  "cancel",
}

// availableActions lists the commands that make sense for d. The backend
// still decides; this only hides actions it would certainly reject.
func availableActions(d *models.MeetupDetail) []string {
	actions := []string{}
	if d == nil {
		return actions
	}
	if d.Status == models.StatusRecruiting {
		if !d.Full() {
			actions = append(actions, "join")
		}
		actions = append(actions, "leave")
	}
	for _, next := range d.Status.NextStatuses() {
		if name, ok := transitionCommands[next]; ok && d.Status.CanTransitionTo(next) {
			actions = append(actions, name)
		}
	}
	return actions
}
