// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the link
// service and the shard daemon.
//
// Code that stamps links or measures uptime accepts a [Clock] instead
// of calling time.Now directly. In production [Real] provides the
// standard library behavior; tests use [Fake], which advances only
// when [FakeClock.Advance] is called:
//
//	c := clock.Fake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
//	service := linker.New(linker.Config{Registries: registries, Clock: c})
//	c.Advance(90 * time.Second)
//
// A goroutine waiting on [Clock.After] registers a pending waiter; use
// [FakeClock.WaitForTimers] before Advance to avoid racing the
// registration.
package clock
