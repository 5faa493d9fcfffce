// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/meetupsync/internal/config"
	"github.com/tomtom215/meetupsync/internal/logging"
	"github.com/tomtom215/meetupsync/internal/metrics"
	"github.com/tomtom215/meetupsync/internal/models"
	"github.com/tomtom215/meetupsync/internal/validation"
	"github.com/tomtom215/meetupsync/internal/viewport"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client calls the meetup backend's request/response endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]byte]
	name       string
}

// New creates a client for cfg.BaseURL. A zero RateLimitRPS disables the
// outgoing limiter.
func New(cfg *config.APIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	name := "backend-api"
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		cb:         newBreaker(name, cfg.Breaker),
		name:       name,
	}
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListByBBox returns the meetups inside b. The rectangle is normalized first
// so the query matches the cache key it populates.
func (c *Client) ListByBBox(ctx context.Context, b viewport.BBox) ([]models.Meetup, error) {
	n := viewport.Normalize(b)
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("bbox: %w", err)
	}

	q := url.Values{}
	q.Set("min_lat", formatCoord(n.MinLat))
	q.Set("min_lng", formatCoord(n.MinLng))
	q.Set("max_lat", formatCoord(n.MaxLat))
	q.Set("max_lng", formatCoord(n.MaxLng))

	var out []models.Meetup
	if err := c.do(ctx, "bbox", http.MethodGet, "/meetups/bbox?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Meetup{}
	}
	return out, nil
}

// GetDetail returns the full view of one meetup.
func (c *Client) GetDetail(ctx context.Context, id int64) (*models.MeetupDetail, error) {
	var out models.MeetupDetail
	if err := c.do(ctx, "detail", http.MethodGet, meetupPath(id, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Join adds a user to a meetup and returns the new attendee count.
func (c *Client) Join(ctx context.Context, id int64, req models.JoinRequest) (*models.AttendanceResponse, error) {
	var out models.AttendanceResponse
	if err := c.do(ctx, "join", http.MethodPost, meetupPath(id, "join"), &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Leave removes a user from a meetup. The body travels on a DELETE.
func (c *Client) Leave(ctx context.Context, id int64, req models.LeaveRequest) (*models.AttendanceResponse, error) {
	var out models.AttendanceResponse
	if err := c.do(ctx, "leave", http.MethodDelete, meetupPath(id, "leave"), &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmPOI settles the meetup on a place.
func (c *Client) ConfirmPOI(ctx context.Context, id int64, req models.ConfirmPOIRequest) (*models.ConfirmPOIResponse, error) {
	var out models.ConfirmPOIResponse
	if err := c.do(ctx, "confirm_poi", http.MethodPost, meetupPath(id, "confirm-poi"), &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Finish marks a confirmed meetup as finished.
func (c *Client) Finish(ctx context.Context, id int64) (*models.StatusResponse, error) {
	var out models.StatusResponse
	if err := c.do(ctx, "finish", http.MethodPost, meetupPath(id, "finish"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel cancels a recruiting meetup.
func (c *Client) Cancel(ctx context.Context, id int64) (*models.StatusResponse, error) {
	var out models.StatusResponse
	if err := c.do(ctx, "cancel", http.MethodPost, meetupPath(id, "cancel"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func meetupPath(id int64, action string) string {
	p := "/meetups/" + strconv.FormatInt(id, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// do performs one call: validate, rate limit, breaker, decode.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ErrAborted)
	}

	var payload []byte
	if body != nil {
		if err := validation.Check(body); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	if err := c.wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = logging.GenerateRequestID()
	}

	start := time.Now()
	status := 0
	attempted := false

	raw, err := c.execute(func() ([]byte, error) {
		attempted = true

		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrAborted
			}
			return nil, err
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrAborted
			}
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, newAPIError(resp, data)
		}
		return data, nil
	})

	if attempted {
		metrics.RecordBackendRequest(op, status, time.Since(start))
	}
	if err != nil {
		if !errors.Is(err, ErrAborted) {
			logging.Debug().Err(err).Str("operation", op).Str("request_id", requestID).Int("status", status).Msg("backend call failed")
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// wait blocks until the limiter admits one request.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	r := c.limiter.Reserve()
	if !r.OK() {
		return errors.New("rate limiter cannot admit request")
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	metrics.BackendRateLimitWaits.Inc()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ErrAborted
	}
}
