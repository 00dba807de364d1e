// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// Fataler is the part of testing.TB the Require helpers use.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed first.
//
//	event := testutil.RequireReceive(t, applied, 5*time.Second, "waiting for guild %s", "42")
func RequireReceive[T any](t Fataler, ch <-chan T, timeout time.Duration, what ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before a value arrived: %s", describe(what))
		}
		return value
	case <-timer.C:
		t.Fatalf("nothing received after %v: %s", timeout, describe(what))
	}
	panic("unreachable")
}

// RequireClosed fails the test unless ch is closed (or delivers) within
// timeout. Registry readiness channels are the usual subject.
//
//	testutil.RequireClosed(t, registries.Servers.Ready(), 5*time.Second, "servers loaded")
func RequireClosed(t Fataler, ch <-chan struct{}, timeout time.Duration, what ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("not closed after %v: %s", timeout, describe(what))
	}
}

// describe renders the optional description: a plain string, or a
// format string and its arguments.
func describe(what []any) string {
	switch {
	case len(what) == 0:
		return "(no description)"
	case len(what) == 1:
		return fmt.Sprint(what[0])
	}
	if format, ok := what[0].(string); ok {
		return fmt.Sprintf(format, what[1:]...)
	}
	return fmt.Sprint(what...)
}
