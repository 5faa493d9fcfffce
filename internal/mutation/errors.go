// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package mutation

import (
	"github.com/tomtom215/meetupsync/internal/client"
)

// UnavailableMessage is shown while the circuit breaker rejects calls.
const UnavailableMessage = "The meetup service is temporarily unavailable. Try again shortly."

// InlineError renders err as a dismissible inline message. It returns ""
// when there is nothing to show: no error, or a self-canceled request.
func InlineError(err error) string {
	switch {
	case err == nil, client.IsAborted(err):
		return ""
	case client.IsUnavailable(err):
		return UnavailableMessage
	}
	if apiErr, ok := client.AsAPIError(err); ok {
		return apiErr.Detail
	}
	return err.Error()
}
