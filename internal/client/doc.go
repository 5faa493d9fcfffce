// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

/*
Package client calls the meetup backend's request/response API.

Every call goes through a rate limiter and a circuit breaker and carries an
X-Request-ID. Non-2xx answers become *APIError with the backend's detail
text; 4xx answers do not trip the breaker. A call whose context was
canceled by the caller returns ErrAborted, which callers drop silently.

	c := client.New(&cfg.API)
	detail, err := c.GetDetail(ctx, 7)
	switch {
	case client.IsAborted(err):
	    return nil
	case client.IsUnavailable(err):
	    // breaker open
	}
*/
package client
