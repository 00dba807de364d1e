// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	originalCommit, originalDirty := GitCommit, GitDirty
	t.Cleanup(func() { GitCommit, GitDirty = originalCommit, originalDirty })

	GitCommit, GitDirty = "abc1234", "false"
	if got := Info(); got != Version+" (abc1234)" {
		t.Errorf("Info() = %q", got)
	}

	GitDirty = "true"
	if got := Info(); !strings.Contains(got, "abc1234-dirty") {
		t.Errorf("Info() = %q, want dirty marker", got)
	}
	if full := Full(); !strings.HasPrefix(full, Info()) || !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() = %q", full)
	}
}

func TestInfoWithoutLinkerFlags(t *testing.T) {
	originalCommit, originalDirty := GitCommit, GitDirty
	t.Cleanup(func() { GitCommit, GitDirty = originalCommit, originalDirty })

	GitCommit, GitDirty = "", ""
	got := Info()
	if !strings.HasPrefix(got, Version+" (") || strings.HasSuffix(got, "()") {
		t.Errorf("Info() = %q, want a revision from build info or \"unknown\"", got)
	}
}
