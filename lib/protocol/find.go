// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"strings"
)

// EntryType classifies a directory listing entry.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "dir"
	EntryOther     EntryType = "other"
)

// Entry is one directory listing entry. Structured listings fill Type
// and Name; servers that only return ls-style text lines fill Raw,
// whose first character encodes the type ('-' file, 'd' directory) and
// whose last whitespace-separated token is the name.
type Entry struct {
	Type EntryType `cbor:"type,omitempty" json:"type,omitempty"`
	Name string    `cbor:"name,omitempty" json:"name,omitempty"`
	Raw  string    `cbor:"raw,omitempty" json:"raw,omitempty"`
}

// Normalize returns the entry with Type and Name resolved from either
// shape. Single-letter structured types ("-", "d") are accepted too.
func (e Entry) Normalize() Entry {
	if e.Type == "" && e.Raw != "" {
		fields := strings.Fields(e.Raw)
		if len(fields) == 0 {
			return Entry{Type: EntryOther, Raw: e.Raw}
		}
		normalized := Entry{Name: fields[len(fields)-1], Raw: e.Raw}
		switch e.Raw[0] {
		case '-':
			normalized.Type = EntryFile
		case 'd':
			normalized.Type = EntryDirectory
		default:
			normalized.Type = EntryOther
		}
		return normalized
	}

	switch e.Type {
	case EntryFile, "-":
		e.Type = EntryFile
	case EntryDirectory, "d":
		e.Type = EntryDirectory
	default:
		e.Type = EntryOther
	}
	return e
}

// Lister lists one remote directory within an open session.
type Lister interface {
	List(ctx context.Context, path string) ([]Entry, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context, path string) ([]Entry, error)

// List implements Lister.
func (f ListerFunc) List(ctx context.Context, path string) ([]Entry, error) {
	return f(ctx, path)
}

// Find searches depth-first for a regular file named file below start
// and returns the directory containing the first match in listing
// order. A path with maxDepth or more '/'-separated segments (empty
// segments included) is not listed, so the search never descends past
// that depth. An exhausted search returns ("", nil). Listings are
// requested one at a time; symbolic-link loops are bounded only by
// maxDepth.
func Find(ctx context.Context, lister Lister, file, start string, maxDepth int) (string, error) {
	if len(strings.Split(start, "/")) >= maxDepth {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entries, err := lister.List(ctx, start)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		entry = entry.Normalize()
		switch entry.Type {
		case EntryFile:
			if entry.Name == file {
				return start, nil
			}
		case EntryDirectory:
			if entry.Name == "." || entry.Name == ".." {
				continue
			}
			found, err := Find(ctx, lister, file, start+"/"+entry.Name, maxDepth)
			if err != nil {
				return "", err
			}
			if found != "" {
				return found, nil
			}
		}
	}
	return "", nil
}
