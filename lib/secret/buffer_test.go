// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import "testing"

func TestNewIsZeroFilled(t *testing.T) {
	buffer, err := New(64)
	if err != nil {
		t.Fatalf("New(64): %v", err)
	}
	defer buffer.Close()

	if buffer.Len() != 64 || len(buffer.Bytes()) != 64 {
		t.Fatalf("Len() = %d, len(Bytes()) = %d", buffer.Len(), len(buffer.Bytes()))
	}
	for index, value := range buffer.Bytes() {
		if value != 0 {
			t.Fatalf("byte %d = %d, want 0", index, value)
		}
	}
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) succeeded", size)
		}
	}
}

func TestNewFromBytesZerosSource(t *testing.T) {
	source := []byte("hunter2")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if buffer.String() != "hunter2" {
		t.Errorf("String() = %q", buffer.String())
	}
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source byte %d not zeroed", index)
		}
	}
	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) succeeded")
	}
}

func TestClose(t *testing.T) {
	buffer, err := New(32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	copy(buffer.Bytes(), "sftp-password")

	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buffer.data != nil || buffer.Len() != 0 {
		t.Errorf("buffer still holds %d bytes after Close", buffer.Len())
	}
	if err := buffer.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestAccessAfterClosePanics(t *testing.T) {
	accessors := map[string]func(*Buffer){
		"Bytes":  func(b *Buffer) { b.Bytes() },
		"String": func(b *Buffer) { _ = b.String() },
	}
	for name, access := range accessors {
		t.Run(name, func(t *testing.T) {
			buffer, err := New(16)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			buffer.Close()

			defer func() {
				if recover() == nil {
					t.Errorf("%s after Close did not panic", name)
				}
			}()
			access(buffer)
		})
	}
}
