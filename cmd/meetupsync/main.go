// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

// Package main is the meetupsync command line client.
//
// meetupsync keeps a live copy of meetup state (status, midpoint, points of
// interest, attendee counts) in sync with a meetup backend. One-shot commands
// read or write a single meetup; watch follows the push streams and serves
// the cached state to a local map UI.
//
// # Usage
//
// Follow the global stream and one meetup, serving the companion API:
//
//	meetupsync watch --focus 7
//
// Read state:
//
//	meetupsync viewport --min-lat 37.4 --min-lng 126.9 --max-lat 37.6 --max-lng 127.1
//	meetupsync detail 7
//
// Write state:
//
//	meetupsync join 7
//	meetupsync confirm-poi 7 --name "Cafe" --lat 37.51 --lng 127.02
//	meetupsync finish 7
//
// # Configuration
//
// Settings come from built-in defaults, then a YAML file (--config or
// CONFIG_PATH), then environment variables:
//   - API_BASE_URL: backend address (default: http://localhost:8000)
//   - STREAM_GLOBAL_URL: global status stream, empty disables it
//   - STREAM_DEBUG: log stream lifecycle and dropped frames
//   - SERVER_ENABLED / SERVER_ADDR: companion API for watch
//   - LOG_LEVEL / LOG_FORMAT: logging
//
// Logs go to stderr. Command results are printed to stdout as JSON.
package main

import (
	"os"
)

// Build information, set with -ldflags "-X main.version=v1.0.0 -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := buildRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
