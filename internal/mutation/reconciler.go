// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package mutation

import (
	"context"

	"github.com/tomtom215/meetupsync/internal/cache"
	"github.com/tomtom215/meetupsync/internal/client"
	"github.com/tomtom215/meetupsync/internal/coherence"
	"github.com/tomtom215/meetupsync/internal/config"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/metrics"
	"github.com/tomtom215/meetupsync/internal/models"
)

// Action names used in logs and metrics.
const (
	ActionJoin       = "join"
	ActionLeave      = "leave"
	ActionConfirmPOI = "confirm_poi"
	ActionFinish     = "finish"
	ActionCancel     = "cancel"
)

// API is the subset of the backend client the reconciler writes through.
// *client.Client implements it.
type API interface {
	Join(ctx context.Context, id int64, req models.JoinRequest) (*models.AttendanceResponse, error)
	Leave(ctx context.Context, id int64, req models.LeaveRequest) (*models.AttendanceResponse, error)
	ConfirmPOI(ctx context.Context, id int64, req models.ConfirmPOIRequest) (*models.ConfirmPOIResponse, error)
	Finish(ctx context.Context, id int64) (*models.StatusResponse, error)
	Cancel(ctx context.Context, id int64) (*models.StatusResponse, error)
}

// Reconciler issues write calls and merges their results into the cache.
//
// On success the response fields are patched into every view with the same
// functions the stream router uses, then detail(id) is marked for refetch
// so the next read reconciles whatever the response did not carry. On
// failure the cache is left untouched and the error is returned.
type Reconciler struct {
	api      API
	store    *cache.Store
	identity config.IdentityConfig
}

// NewReconciler creates a reconciler. identity supplies the user and
// position sent with join and leave.
func NewReconciler(api API, store *cache.Store, identity config.IdentityConfig) *Reconciler {
	return &Reconciler{
		api:      api,
		store:    store,
		identity: identity,
	}
}

// Join adds the configured identity to meetup id.
func (r *Reconciler) Join(ctx context.Context, id int64) (*models.AttendanceResponse, error) {
	resp, err := r.api.Join(ctx, id, models.JoinRequest{
		UserID: r.identity.UserID,
		Lat:    r.identity.Lat,
		Lng:    r.identity.Lng,
	})
	if err != nil {
		return nil, r.fail(ctx, ActionJoin, id, err)
	}
	r.commit(ctx, ActionJoin, id, func(tx *cache.Tx) int {
		return coherence.PatchCurrentCount(tx, id, resp.CurrentCount)
	})
	return resp, nil
}

// Leave removes the configured identity from meetup id.
func (r *Reconciler) Leave(ctx context.Context, id int64) (*models.AttendanceResponse, error) {
	resp, err := r.api.Leave(ctx, id, models.LeaveRequest{UserID: r.identity.UserID})
	if err != nil {
		return nil, r.fail(ctx, ActionLeave, id, err)
	}
	r.commit(ctx, ActionLeave, id, func(tx *cache.Tx) int {
		return coherence.PatchCurrentCount(tx, id, resp.CurrentCount)
	})
	return resp, nil
}

// ConfirmPOI settles meetup id on the given place.
func (r *Reconciler) ConfirmPOI(ctx context.Context, id int64, req models.ConfirmPOIRequest) (*models.ConfirmPOIResponse, error) {
	resp, err := r.api.ConfirmPOI(ctx, id, req)
	if err != nil {
		return nil, r.fail(ctx, ActionConfirmPOI, id, err)
	}
	poi := confirmedFromResponse(req, resp)
	r.commit(ctx, ActionConfirmPOI, id, func(tx *cache.Tx) int {
		return coherence.PatchConfirmedPOI(tx, id, poi)
	})
	return resp, nil
}

// Finish moves meetup id to FINISHED.
func (r *Reconciler) Finish(ctx context.Context, id int64) (*models.StatusResponse, error) {
	resp, err := r.api.Finish(ctx, id)
	if err != nil {
		return nil, r.fail(ctx, ActionFinish, id, err)
	}
	status := statusOr(resp.Status, models.StatusFinished)
	r.commit(ctx, ActionFinish, id, func(tx *cache.Tx) int {
		return coherence.PatchStatus(tx, id, status)
	})
	return resp, nil
}

// Cancel moves meetup id to CANCELED.
func (r *Reconciler) Cancel(ctx context.Context, id int64) (*models.StatusResponse, error) {
	resp, err := r.api.Cancel(ctx, id)
	if err != nil {
		return nil, r.fail(ctx, ActionCancel, id, err)
	}
	status := statusOr(resp.Status, models.StatusCanceled)
	r.commit(ctx, ActionCancel, id, func(tx *cache.Tx) int {
		return coherence.PatchStatus(tx, id, status)
	})
	return resp, nil
}

// commit applies patch in one store update, then marks detail(id) for refetch.
func (r *Reconciler) commit(ctx context.Context, action string, id int64, patch func(tx *cache.Tx) int) {
	written := 0
	r.store.Update(func(tx *cache.Tx) {
		written = patch(tx)
	})
	r.store.Invalidate(cache.DetailKey(id))

	metrics.RecordMutation(action, "success")
	logging.Ctx(logging.ContextWithMeetupID(ctx, id)).Debug().
		Str("component", "mutation").
		Str("action", action).
		Int("entries", written).
		Msg("mutation applied")
}

func (r *Reconciler) fail(ctx context.Context, action string, id int64, err error) error {
	if client.IsAborted(err) {
		metrics.RecordMutation(action, "aborted")
		return err
	}
	logger := logging.Ctx(logging.ContextWithMeetupID(ctx, id))
	event := logger.Warn()
	result := "error"
	if apiErr, ok := client.AsAPIError(err); ok && apiErr.StatusCode < 500 {
		event = logger.Info()
		if apiErr.Conflict() {
			result = "conflict"
		}
	}
	metrics.RecordMutation(action, result)
	event.Err(err).Str("component", "mutation").Str("action", action).Msg("mutation failed")
	return err
}

// confirmedFromResponse prefers the place the backend echoed back and falls
// back to the request when it omitted it.
func confirmedFromResponse(req models.ConfirmPOIRequest, resp *models.ConfirmPOIResponse) *models.ConfirmedPOI {
	var poi models.ConfirmedPOI
	if resp.POI != nil {
		poi = *resp.POI
	} else {
		poi = models.ConfirmedPOI{Name: req.Name, Lat: req.Lat, Lng: req.Lng, Address: req.Address}
	}
	if resp.ConfirmedAt != nil && *resp.ConfirmedAt != "" {
		poi.ConfirmedAt = *resp.ConfirmedAt
	}
	return &poi
}

func statusOr(s, fallback models.Status) models.Status {
	if s.Valid() {
		return s
	}
	return fallback
}
