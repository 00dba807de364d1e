// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds one server password or sealing identity while the CLI
// hands it on. A closed Buffer has no data and panics on access.
type Buffer struct {
	mu   sync.Mutex
	data []byte
}

// New returns a zero-filled Buffer of size bytes.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}
	data, err := lockedRegion(size)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: data}, nil
}

// NewFromBytes moves source into a new Buffer. source is zeroed even
// when allocation fails.
func NewFromBytes(source []byte) (*Buffer, error) {
	defer clear(source)
	if len(source) == 0 {
		return nil, errors.New("secret: cannot create buffer from empty source")
	}
	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}
	copy(buffer.data, source)
	return buffer, nil
}

// lockedRegion maps anonymous memory outside the Go heap, pins it in
// RAM and keeps it out of core dumps.
func lockedRegion(size int) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mapping %d bytes: %w", size, err)
	}
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: locking %d bytes (RLIMIT_MEMLOCK?): %w", size, err)
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		release(data)
		return nil, fmt.Errorf("secret: excluding buffer from core dumps: %w", err)
	}
	return data, nil
}

// release zeroes data and returns it to the kernel.
func release(data []byte) error {
	clear(data)
	return errors.Join(unix.Munlock(data), unix.Munmap(data))
}

func (b *Buffer) contents() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		panic("secret: buffer used after Close")
	}
	return b.data
}

// Bytes returns the protected bytes themselves. The slice is invalid
// after Close.
func (b *Buffer) Bytes() []byte { return b.contents() }

// String copies the secret onto the heap. Link records store
// credentials as strings, so this is where a password leaves the
// Buffer.
func (b *Buffer) String() string { return string(b.contents()) }

// Len returns the secret's length, or 0 once closed.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Close wipes and unmaps the buffer. Closing twice is a no-op.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil
	}
	data := b.data
	b.data = nil
	if err := release(data); err != nil {
		return fmt.Errorf("secret: releasing buffer: %w", err)
	}
	return nil
}
