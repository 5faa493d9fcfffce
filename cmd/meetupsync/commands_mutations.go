// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/mutation"
	"github.com/tomtom215/meetupsync/internal/validation"
)

// inlineError turns a backend error into the message shown to the user.
// Aborted calls yield nil.
func inlineError(err error) error {
	msg := mutation.InlineError(err)
	if msg == "" {
		logging.Debug().Err(err).Msg("request aborted")
		return nil
	}
	return errors.New(msg)
}

// buildIDMutationCmd builds a command that takes only a meetup id.
func buildIDMutationCmd[T any](a *app, use, short string, call func(meetupSession, context.Context, int64) (T, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <meetup-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMeetupID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(func(sess meetupSession) error {
				resp, err := call(sess, cmd.Context(), id)
				if err != nil {
					return inlineError(err)
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func buildJoinCmd(a *app) *cobra.Command {
	return buildIDMutationCmd(a, "join", "Join a meetup as the configured identity", meetupSession.Join)
}

func buildLeaveCmd(a *app) *cobra.Command {
	return buildIDMutationCmd(a, "leave", "Leave a meetup as the configured identity", meetupSession.Leave)
}

func buildFinishCmd(a *app) *cobra.Command {
	return buildIDMutationCmd(a, "finish", "Mark a confirmed meetup as finished", meetupSession.Finish)
}

func buildCancelCmd(a *app) *cobra.Command {
	return buildIDMutationCmd(a, "cancel", "Cancel a recruiting meetup", meetupSession.Cancel)
}

func buildConfirmPOICmd(a *app) *cobra.Command {
	var req models.ConfirmPOIRequest
	cmd := &cobra.Command{
		Use:   "confirm-poi <meetup-id>",
		Short: "Confirm the place a meetup will gather at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMeetupID(args[0])
			if err != nil {
				return err
			}
			if err := validation.Check(req); err != nil {
				return err
			}
			return a.withSession(func(sess meetupSession) error {
				resp, err := sess.ConfirmPOI(cmd.Context(), id, req)
				if err != nil {
					return inlineError(err)
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Place name")
	cmd.Flags().Float64Var(&req.Lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&req.Lng, "lng", 0, "Longitude")
	cmd.Flags().StringVar(&req.Address, "address", "", "Street address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
