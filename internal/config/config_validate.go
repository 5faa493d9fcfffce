// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/meetupsync/internal/validation"
)

// Validate checks struct tags first, then the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.Check(c); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateStream(); err != nil {
		return err
	}

	return c.validateServer()
}

func (c *Config) validateAPI() error {
	return validateHTTPURL(c.API.BaseURL, "API_BASE_URL")
}

func (c *Config) validateStream() error {
	if c.Stream.BaseURL != "" {
		if err := validateHTTPURL(c.Stream.BaseURL, "STREAM_BASE_URL"); err != nil {
			return err
		}
	}
	if c.GlobalStreamEnabled() {
		if err := validateHTTPURL(c.Stream.GlobalURL, "STREAM_GLOBAL_URL"); err != nil {
			return err
		}
	}
	if c.Stream.BackoffFloor > c.Stream.BackoffCeiling {
		return fmt.Errorf("STREAM_BACKOFF_FLOOR (%s) must not exceed STREAM_BACKOFF_CEILING (%s)",
			c.Stream.BackoffFloor, c.Stream.BackoffCeiling)
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("SERVER_ALLOWED_ORIGINS entry %q must be * or an http(s) origin", origin)
		}
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("SERVER_RATE_WINDOW must be positive when SERVER_RATE_LIMIT is set")
	}
	return nil
}
