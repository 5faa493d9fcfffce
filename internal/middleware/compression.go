// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package middleware

import (
	"compress/flate"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// compressJSON is chi's compressor limited to the API's JSON bodies.
var compressJSON = chimiddleware.Compress(flate.DefaultCompression, "application/json")

// Compression gzips or deflates JSON responses for clients that accept it.
// Websocket upgrades bypass the compressor entirely.
func Compression(next http.Handler) http.Handler {
	compressed := compressJSON(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}
