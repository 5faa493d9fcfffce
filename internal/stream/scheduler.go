// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package stream

import "time"

// Task is a scheduled callback that can be canceled.
type Task interface {
	// Stop cancels the task. It reports whether the call stopped the task
	// before it ran.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) Task {
	return time.AfterFunc(d, fn)
}

// TimerScheduler schedules on the runtime timer.
var TimerScheduler Scheduler = timerScheduler{}
