// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/tomtom215/meetupsync/internal/client"
	"github.com/tomtom215/meetupsync/internal/config"
	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/viewport"
)

type fakeSession struct {
	err    error
	calls  []string
	closed bool
	bbox   viewport.BBox
	poiReq models.ConfirmPOIRequest
	detail *models.MeetupDetail
}

func (f *fakeSession) record(op string, id int64) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", op, id))
}

func (f *fakeSession) LoadViewport(_ context.Context, b viewport.BBox) ([]models.Meetup, error) {
	f.calls = append(f.calls, "viewport")
	f.bbox = b
	if f.err != nil {
		return nil, f.err
	}
	return []models.Meetup{{ID: 7, Title: "Lunch", Status: models.StatusRecruiting}}, nil
}

func (f *fakeSession) Detail(_ context.Context, id int64) (*models.MeetupDetail, error) {
	f.record("detail", id)
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeSession) Join(_ context.Context, id int64) (*models.AttendanceResponse, error) {
	f.record("join", id)
	if f.err != nil {
		return nil, f.err
	}
	return &models.AttendanceResponse{Message: "joined", CurrentCount: 3}, nil
}

func (f *fakeSession) Leave(_ context.Context, id int64) (*models.AttendanceResponse, error) {
	f.record("leave", id)
	if f.err != nil {
		return nil, f.err
	}
	return &models.AttendanceResponse{Message: "left", CurrentCount: 2}, nil
}

func (f *fakeSession) ConfirmPOI(_ context.Context, id int64, req models.ConfirmPOIRequest) (*models.ConfirmPOIResponse, error) {
	f.record("confirm-poi", id)
	f.poiReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ConfirmPOIResponse{Message: "confirmed", Status: models.StatusConfirmed}, nil
}

func (f *fakeSession) Finish(_ context.Context, id int64) (*models.StatusResponse, error) {
	f.record("finish", id)
	if f.err != nil {
		return nil, f.err
	}
	return &models.StatusResponse{Message: "finished", Status: models.StatusFinished}, nil
}

func (f *fakeSession) Cancel(_ context.Context, id int64) (*models.StatusResponse, error) {
	f.record("cancel", id)
	if f.err != nil {
		return nil, f.err
	}
	return &models.StatusResponse{Message: "canceled", Status: models.StatusCanceled}, nil
}

func (f *fakeSession) Close() { f.closed = true }

func testApp(sess *fakeSession) *app {
	a := newApp()
	a.loadConfig = func() (*config.Config, error) {
		return &config.Config{Logging: config.LoggingConfig{Level: "error", Format: "json"}}, nil
	}
	a.openSession = func(*config.Config) (meetupSession, error) { return sess, nil }
	return a
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := buildRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		err       error
		wantCalls []string
		wantOut   string
		wantErr   string
	}{
		{
			name:      "viewport",
			args:      []string{"viewport", "--min-lat", "37.4", "--min-lng", "126.9", "--max-lat", "37.6", "--max-lng", "127.1"},
			wantCalls: []string{"viewport"},
			wantOut:   `"title": "Lunch"`,
		},
		{
			name:    "viewport missing flag",
			args:    []string{"viewport", "--min-lat", "37.4"},
			wantErr: "required flag",
		},
		{
			name:    "viewport invalid box",
			args:    []string{"viewport", "--min-lat", "95", "--min-lng", "126.9", "--max-lat", "37.6", "--max-lng", "127.1"},
			wantErr: "lat",
		},
		{
			name:      "join",
			args:      []string{"join", "7"},
			wantCalls: []string{"join:7"},
			wantOut:   `"current_count": 3`,
		},
		{
			name:      "leave",
			args:      []string{"leave", "7"},
			wantCalls: []string{"leave:7"},
			wantOut:   `"message": "left"`,
		},
		{
			name:      "finish",
			args:      []string{"finish", "9"},
			wantCalls: []string{"finish:9"},
			wantOut:   `"status": "FINISHED"`,
		},
		{
			name:      "cancel",
			args:      []string{"cancel", "9"},
			wantCalls: []string{"cancel:9"},
			wantOut:   `"status": "CANCELED"`,
		},
		{
			name:      "confirm-poi",
			args:      []string{"confirm-poi", "7", "--name", "Cafe", "--lat", "37.51", "--lng", "127.02"},
			wantCalls: []string{"confirm-poi:7"},
			wantOut:   `"status": "CONFIRMED"`,
		},
		{
			name:    "confirm-poi invalid latitude",
			args:    []string{"confirm-poi", "7", "--name", "Cafe", "--lat", "137", "--lng", "127.02"},
			wantErr: "latitude",
		},
		{
			name:    "invalid id",
			args:    []string{"join", "abc"},
			wantErr: "invalid meetup id",
		},
		{
			name:    "zero id",
			args:    []string{"finish", "0"},
			wantErr: "invalid meetup id",
		},
		{
			name:      "conflict renders backend detail",
			args:      []string{"join", "7"},
			err:       &client.APIError{StatusCode: 409, Detail: "Meetup is full"},
			wantCalls: []string{"join:7"},
			wantErr:   "Meetup is full",
		},
		{
			name:      "aborted is silent",
			args:      []string{"cancel", "7"},
			err:       client.ErrAborted,
			wantCalls: []string{"cancel:7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{err: tt.err}
			out, err := run(t, testApp(sess), tt.args...)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(sess.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", sess.calls, tt.wantCalls)
			}
			if tt.wantOut != "" && !strings.Contains(out, tt.wantOut) {
				t.Errorf("output = %s, want it to contain %s", out, tt.wantOut)
			}
			if len(tt.wantCalls) > 0 && !sess.closed {
				t.Error("session not closed")
			}
		})
	}
}

func TestConfirmPOIForwardsFlags(t *testing.T) {
	sess := &fakeSession{}
	_, err := run(t, testApp(sess), "confirm-poi", "7", "--name", "Cafe", "--lat", "37.51", "--lng", "127.02", "--address", "1 Main St")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.ConfirmPOIRequest{Name: "Cafe", Lat: 37.51, Lng: 127.02, Address: "1 Main St"}
	if sess.poiReq != want {
		t.Errorf("request = %+v, want %+v", sess.poiReq, want)
	}
}

func TestDetailCommand(t *testing.T) {
	sess := &fakeSession{detail: &models.MeetupDetail{
		ID:           7,
		Status:       models.StatusRecruiting,
		Capacity:     4,
		CurrentCount: 2,
	}}
	out, err := run(t, testApp(sess), "detail", "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"id": 7`, `"join"`, `"confirm-poi"`, `"cancel"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestSetupFailsOnConfigError(t *testing.T) {
	sess := &fakeSession{}
	a := testApp(sess)
	a.loadConfig = func() (*config.Config, error) { return nil, errors.New("bad yaml") }

	_, err := run(t, a, "join", "7")
	if err == nil || !strings.Contains(err.Error(), "load configuration") {
		t.Fatalf("error = %v, want configuration error", err)
	}
	if len(sess.calls) != 0 {
		t.Errorf("session used despite config error: %v", sess.calls)
	}
}

func TestOpenSessionError(t *testing.T) {
	a := testApp(nil)
	a.openSession = func(*config.Config) (meetupSession, error) { return nil, errors.New("boom") }

	_, err := run(t, a, "detail", "7")
	if err == nil || !strings.Contains(err.Error(), "open session") {
		t.Fatalf("error = %v, want open session error", err)
	}
}

func TestWatchRejectsNegativeFocus(t *testing.T) {
	_, err := run(t, testApp(&fakeSession{}), "watch", "--focus", "-1")
	if err == nil || !strings.Contains(err.Error(), "invalid --focus") {
		t.Fatalf("error = %v, want focus error", err)
	}
}

func TestConfigCommand(t *testing.T) {
	out, err := run(t, testApp(&fakeSession{}), "config", "--env")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"API_BASE_URL\n", "LOG_LEVEL\n", "CONFIG_PATH\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	out, err = run(t, testApp(&fakeSession{}), "config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"Logging"`) {
		t.Errorf("config output = %s", out)
	}
}

func TestParseMeetupID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{"123456789", 123456789, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"7.5", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseMeetupID(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMeetupID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseMeetupID(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}

func TestAvailableActions(t *testing.T) {
	tests := []struct {
		name   string
		detail *models.MeetupDetail
		want   []string
	}{
		{"nil", nil, []string{}},
		{
			"recruiting with room",
			&models.MeetupDetail{Status: models.StatusRecruiting, Capacity: 4, CurrentCount: 1},
			[]string{"join", "leave", "confirm-poi", "cancel"},
		},
		{
			"recruiting full",
			&models.MeetupDetail{Status: models.StatusRecruiting, Capacity: 2, CurrentCount: 2},
			[]string{"leave", "confirm-poi", "cancel"},
		},
		{
			"confirmed",
			&models.MeetupDetail{Status: models.StatusConfirmed},
			[]string{"finish"},
		},
		{"finished", &models.MeetupDetail{Status: models.StatusFinished}, []string{}},
		{"canceled", &models.MeetupDetail{Status: models.StatusCanceled}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := availableActions(tt.detail); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("availableActions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInlineError(t *testing.T) {
	if err := inlineError(client.ErrAborted); err != nil {
		t.Errorf("aborted = %v, want nil", err)
	}
	if err := inlineError(fmt.Errorf("wrapped: %w", client.ErrAborted)); err != nil {
		t.Errorf("wrapped aborted = %v, want nil", err)
	}
	err := inlineError(&client.APIError{StatusCode: 404, Detail: "Meetup not found"})
	if err == nil || err.Error() != "Meetup not found" {
		t.Errorf("not found = %v", err)
	}
}
