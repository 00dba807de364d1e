// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ftpconn "github.com/jlaffaye/ftp"

	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/protocol"
)

// fakeConn is an in-memory FTP session.
type fakeConn struct {
	files       map[string]string
	directories map[string][]protocol.Entry
	password    string

	retrieveErr error
	closeErr    error

	quits int
	log   []string
}

func (f *fakeConn) Login(user, password string) error {
	f.log = append(f.log, "USER "+user)
	if password != f.password {
		return errors.New("530 Login incorrect")
	}
	return nil
}

func (f *fakeConn) Retrieve(path string) (io.ReadCloser, error) {
	f.log = append(f.log, "RETR "+path)
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	content, ok := f.files[path]
	if !ok {
		return nil, errors.New("550 No such file")
	}
	return &stream{Reader: strings.NewReader(content), closeErr: f.closeErr}, nil
}

func (f *fakeConn) Store(path string, r io.Reader) error {
	f.log = append(f.log, "STOR "+path)
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.files[path] = string(data)
	return nil
}

func (f *fakeConn) List(path string) ([]protocol.Entry, error) {
	f.log = append(f.log, "LIST "+path)
	entries, ok := f.directories[path]
	if !ok {
		return nil, fmt.Errorf("550 %s: No such directory", path)
	}
	return entries, nil
}

func (f *fakeConn) Quit() error {
	f.quits++
	return nil
}

type stream struct {
	io.Reader
	closeErr error
}

func (s *stream) Close() error { return s.closeErr }

func newFakeClient(fake *fakeConn, dialErr error) *Client {
	client := New(Config{})
	client.dial = func(ctx context.Context, address string) (conn, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return fake, nil
	}
	return client
}

func testServer() *link.Server {
	return &link.Server{
		ServerID: "survival",
		Kind:     link.FTP,
		Host:     "mc.example.net",
		Port:     21,
		Username: "steve",
		Password: "hunter2",
	}
}

func TestGet(t *testing.T) {
	fake := &fakeConn{password: "hunter2", files: map[string]string{"/srv/ops.json": "[]"}}
	local := filepath.Join(t.TempDir(), "42", "ops.json")

	if err := newFakeClient(fake, nil).Get(context.Background(), testServer(), "/srv/ops.json", local); err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, err := os.ReadFile(local)
	if err != nil || string(data) != "[]" {
		t.Errorf("local file = %q, %v", data, err)
	}
	if fake.quits != 1 {
		t.Errorf("session quit %d times, want 1", fake.quits)
	}
}

func TestGetFailureStages(t *testing.T) {
	tests := []struct {
		name  string
		fake  *fakeConn
		stage protocol.Stage
	}{
		{
			name:  "transfer",
			fake:  &fakeConn{password: "hunter2", files: map[string]string{}},
			stage: protocol.StageGet,
		},
		{
			name:  "stream close",
			fake:  &fakeConn{password: "hunter2", files: map[string]string{"/srv/ops.json": "[]"}, closeErr: errors.New("426 transfer aborted")},
			stage: protocol.StageClose,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			local := filepath.Join(t.TempDir(), "ops.json")
			err := newFakeClient(test.fake, nil).Get(context.Background(), testServer(), "/srv/ops.json", local)
			var operationError *protocol.OperationError
			if !errors.As(err, &operationError) {
				t.Fatalf("Get error = %v, want *OperationError", err)
			}
			if operationError.Stage != test.stage || operationError.Path != "/srv/ops.json" {
				t.Errorf("OperationError = %+v, want stage %s", operationError, test.stage)
			}
			if test.fake.quits != 1 {
				t.Errorf("failed session quit %d times, want 1", test.fake.quits)
			}
		})
	}
}

func TestConnectFailures(t *testing.T) {
	t.Run("dial", func(t *testing.T) {
		err := newFakeClient(nil, errors.New("connection refused")).Verify(context.Background(), testServer())
		var connectError *protocol.ConnectError
		if !errors.As(err, &connectError) || connectError.Addr != "mc.example.net:21" {
			t.Fatalf("Verify error = %v, want *ConnectError", err)
		}
	})

	t.Run("login", func(t *testing.T) {
		fake := &fakeConn{password: "other"}
		err := newFakeClient(fake, nil).Verify(context.Background(), testServer())
		var connectError *protocol.ConnectError
		if !errors.As(err, &connectError) {
			t.Fatalf("Verify error = %v, want *ConnectError", err)
		}
		if fake.quits != 1 {
			t.Errorf("rejected session quit %d times, want 1", fake.quits)
		}
	})

	t.Run("malformed address", func(t *testing.T) {
		server := testServer()
		server.Port = 0
		err := newFakeClient(&fakeConn{}, nil).Verify(context.Background(), server)
		if !errors.Is(err, link.ErrMalformedAddress) {
			t.Fatalf("Verify error = %v, want ErrMalformedAddress", err)
		}
	})
}

func TestPut(t *testing.T) {
	local := filepath.Join(t.TempDir(), "whitelist.json")
	if err := os.WriteFile(local, []byte(`[{"name":"alex"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	fake := &fakeConn{password: "hunter2", files: map[string]string{}}
	if err := newFakeClient(fake, nil).Put(context.Background(), testServer(), local, "/srv/whitelist.json"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := fake.files["/srv/whitelist.json"]; got != `[{"name":"alex"}]` {
		t.Errorf("stored %q", got)
	}

	err := newFakeClient(fake, nil).Put(context.Background(), testServer(), filepath.Join(t.TempDir(), "missing"), "/srv/x")
	var operationError *protocol.OperationError
	if !errors.As(err, &operationError) || operationError.Stage != protocol.StagePut {
		t.Errorf("Put of a missing local file = %v", err)
	}
}

func TestFindUsesOneSession(t *testing.T) {
	fake := &fakeConn{
		password: "hunter2",
		directories: map[string][]protocol.Entry{
			"/srv":         {{Type: protocol.EntryDirectory, Name: "logs"}, {Type: protocol.EntryDirectory, Name: "world"}},
			"/srv/logs":    {{Type: protocol.EntryFile, Name: "latest.log"}},
			"/srv/world":   {{Raw: "-rw-r--r-- 1 mc mc 1024 Mar 01 12:00 level.dat"}},
			"/srv/nowhere": {},
		},
	}
	found, err := newFakeClient(fake, nil).Find(context.Background(), testServer(), "level.dat", "/srv", 5)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found != "/srv/world" {
		t.Errorf("Find = %q, want /srv/world", found)
	}
	if fake.quits != 1 {
		t.Errorf("search used %d sessions, want 1", fake.quits)
	}
	var logins int
	for _, line := range fake.log {
		if strings.HasPrefix(line, "USER ") {
			logins++
		}
	}
	if logins != 1 {
		t.Errorf("logged in %d times", logins)
	}
}

func TestExecuteUnsupported(t *testing.T) {
	_, err := New(Config{}).Execute(context.Background(), testServer(), "say hi")
	if !errors.Is(err, protocol.ErrUnsupported) {
		t.Errorf("Execute error = %v, want ErrUnsupported", err)
	}
}

func TestConvertEntries(t *testing.T) {
	entries := convertEntries([]*ftpconn.Entry{
		{Name: "world", Type: ftpconn.EntryTypeFolder},
		{Name: "server.jar", Type: ftpconn.EntryTypeFile},
		{Name: "logs", Type: ftpconn.EntryTypeLink},
	})
	want := []protocol.Entry{
		{Type: protocol.EntryDirectory, Name: "world"},
		{Type: protocol.EntryFile, Name: "server.jar"},
		{Type: protocol.EntryOther, Name: "logs"},
	}
	if len(entries) != len(want) {
		t.Fatalf("converted %d entries", len(entries))
	}
	for index := range want {
		if entries[index] != want[index] {
			t.Errorf("entry %d = %+v, want %+v", index, entries[index], want[index])
		}
	}
}
