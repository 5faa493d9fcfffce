// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package config

import (
	"fmt"
	"net/url"
)

// validateHTTPURL accepts an absolute http(s) address. A path prefix is
// fine, the backend may sit behind a reverse proxy, but query strings and
// fragments would be lost when request paths are joined on.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return fmt.Errorf("%s is not a URL: %w", name, err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("%s scheme must be http or https, got %q", name, u.Scheme)
	case u.Host == "":
		return fmt.Errorf("%s has no host", name)
	case u.RawQuery != "" || u.ForceQuery:
		return fmt.Errorf("%s must not carry a query string", name)
	case u.Fragment != "":
		return fmt.Errorf("%s must not carry a fragment", name)
	}
	return nil
}
