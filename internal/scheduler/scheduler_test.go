// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/onews-go/internal/testutil"
)

func TestAdd(t *testing.T) {
	s := New(testutil.DiscardLogger())
	noop := func(context.Context) error { return nil }

	if err := s.Add(Job{Name: "a", Schedule: "@every 1m", Run: noop}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	tests := []struct {
		name string
		job  Job
		want string
	}{
		{"duplicate", Job{Name: "a", Schedule: "@every 1m", Run: noop}, "already registered"},
		{"bad schedule", Job{Name: "b", Schedule: "every minute", Run: noop}, "invalid schedule"},
		{"no name", Job{Schedule: "@every 1m", Run: noop}, "needs a name"},
		{"no func", Job{Name: "c", Schedule: "@every 1m"}, "needs a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Add(tt.job)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Add() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	s := New(testutil.DiscardLogger())
	if err := s.Add(Job{Name: "noop", Schedule: "* * * * *", Run: func(context.Context) error { return nil }}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Stop()
}

func TestTrigger(t *testing.T) {
	s := New(testutil.DiscardLogger())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	var calls atomic.Int32
	boom := errors.New("boom")
	_ = s.Add(Job{Name: "ok", Schedule: "@hourly", Run: func(context.Context) error {
		calls.Add(1)
		return nil
	}})
	_ = s.Add(Job{Name: "fail", Schedule: "@hourly", Run: func(context.Context) error { return boom }})

	if err := s.Trigger("ok"); err != nil {
		t.Fatalf("Trigger(ok) = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if err := s.Trigger("fail"); !errors.Is(err, boom) {
		t.Errorf("Trigger(fail) = %v, want boom", err)
	}
	if err := s.Trigger("missing"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Trigger(missing) = %v, want ErrUnknownJob", err)
	}

	jobs := s.Jobs()
	if len(jobs) != 2 || jobs[0].Name != "fail" || jobs[1].Name != "ok" {
		t.Fatalf("Jobs() = %+v", jobs)
	}
	if jobs[0].LastError != "boom" {
		t.Errorf("fail.LastError = %q", jobs[0].LastError)
	}
	if !jobs[1].LastRun.Equal(fixed) || jobs[1].LastError != "" {
		t.Errorf("ok = %+v", jobs[1])
	}
}

func TestRunSkipsOverlap(t *testing.T) {
	s := New(testutil.DiscardLogger())

	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	_ = s.Add(Job{Name: "slow", Schedule: "@hourly", Run: func(context.Context) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	}})

	done := make(chan error, 1)
	go func() { done <- s.Trigger("slow") }()
	<-started

	if err := s.Trigger("slow"); err != nil {
		t.Errorf("overlapping Trigger = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Trigger = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
