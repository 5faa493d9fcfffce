// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/meetupsync/internal/client"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/mutation"
	"github.com/tomtom215/meetupsync/internal/validation"
)

// Join adds the configured identity to meetup {id}.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, id int64) (interface{}, error) {
		return h.session.Join(ctx, id)
	})
}

// Leave removes the configured identity from meetup {id}.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, id int64) (interface{}, error) {
		return h.session.Leave(ctx, id)
	})
}

// Finish moves meetup {id} to FINISHED.
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, id int64) (interface{}, error) {
		return h.session.Finish(ctx, id)
	})
}

// Cancel moves meetup {id} to CANCELED.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, id int64) (interface{}, error) {
		return h.session.Cancel(ctx, id)
	})
}

// ConfirmPOI settles meetup {id} on the place in the request body.
func (h *Handler) ConfirmPOI(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.ConfirmPOIRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		rw.BadRequest("Invalid request body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	h.mutateWith(rw, r, func(ctx context.Context, id int64) (interface{}, error) {
		return h.session.ConfirmPOI(ctx, id, req)
	})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, call func(context.Context, int64) (interface{}, error)) {
	h.mutateWith(NewResponseWriter(w, r), r, call)
}

func (h *Handler) mutateWith(rw *ResponseWriter, r *http.Request, call func(context.Context, int64) (interface{}, error)) {
	id, err := meetupIDParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	resp, err := call(logging.ContextWithMeetupID(r.Context(), id), id)
	if err != nil {
		writeBackendError(rw, r, err)
		return
	}
	rw.Success(resp)
}

// writeBackendError maps a session error onto a response. Aborted requests
// get no body: the client that canceled them is gone.
func writeBackendError(rw *ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case client.IsAborted(err):
		logging.Ctx(r.Context()).Debug().Msg("request aborted by client")
		return
	case errors.As(err, &verr):
		rw.ValidationError(verr)
		return
	case client.IsUnavailable(err):
		rw.ServiceUnavailable(mutation.InlineError(err))
		return
	}

	message := mutation.InlineError(err)
	apiErr, ok := client.AsAPIError(err)
	if !ok || apiErr.StatusCode < 400 || apiErr.StatusCode >= 500 {
		rw.Fail(http.StatusBadGateway, message)
		return
	}
	// 4xx answers pass through; 404 and 409 keep their own codes.
	rw.Fail(apiErr.StatusCode, message)
}
