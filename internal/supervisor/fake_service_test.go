// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package supervisor

import (
	"context"
	"fmt"
	"sync/atomic"
)

// fakeService fails its first `failures` runs, then blocks until canceled.
type fakeService struct {
	name     string
	failures int32

	runs  atomic.Int32
	exits atomic.Int32
}

func newFakeService(name string, failures int32) *fakeService {
	return &fakeService{name: name, failures: failures}
}

func (f *fakeService) Serve(ctx context.Context) error {
	n := f.runs.Add(1)
	defer f.exits.Add(1)
	if n <= f.failures {
		return fmt.Errorf("%s: run %d failed", f.name, n)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) String() string { return f.name }
