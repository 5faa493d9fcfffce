// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package events

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// DefaultEventName is used for frames that carry no "event:" field.
const DefaultEventName = "message"

// maxFrameLine bounds a single SSE line. POI lists are the largest payloads.
const maxFrameLine = 1 << 20

// Frame is one dispatched server-sent event.
type Frame struct {
	Event string
	Data  string
	ID    string
}

// ErrStopParsing may be returned by a frame handler to end ParseStream cleanly.
var ErrStopParsing = errors.New("stop parsing")

// ParseStream reads text/event-stream input from r and calls fn once per
// dispatched frame. Comment lines (": ping") are skipped. Multiple data lines
// are joined with "\n". A frame with no data lines is not dispatched.
//
// ParseStream returns nil on EOF or when fn returns ErrStopParsing. Any
// other error from fn or from the reader is returned as is.
func ParseStream(r io.Reader, fn func(Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameLine)

	var (
		event   string
		id      string
		data    strings.Builder
		hasData bool
	)

	dispatch := func() error {
		defer func() {
			event = ""
			data.Reset()
			hasData = false
		}()
		if !hasData {
			return nil
		}
		name := event
		if name == "" {
			name = DefaultEventName
		}
		return fn(Frame{Event: name, Data: data.String(), ID: id})
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == "" {
			if err := dispatch(); err != nil {
				if errors.Is(err, ErrStopParsing) {
					return nil
				}
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				id = value
			}
		}
	}

	return scanner.Err()
}
