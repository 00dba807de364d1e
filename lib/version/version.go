// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Release builds set these with -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/serverlink/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/...
//
// Left empty, the commit comes from the VCS stamp the go command
// embeds in the binary.
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	GitDirty  = ""
)

// commit returns the build's revision and whether the tree was dirty.
func commit() (revision string, dirty bool) {
	if GitCommit != "" {
		return GitCommit, GitDirty == "true"
	}
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return revision, false
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value[:min(len(setting.Value), 12)]
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return revision, dirty
}

// Info returns "<version> (<commit>[-dirty])", as printed by
// "serverlink version" and the shard's --version flag.
func Info() string {
	revision, dirty := commit()
	if dirty {
		revision += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", Version, revision)
}

// Full adds the toolchain and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  built with %s for %s/%s", Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
