// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/codec"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/sealed"
)

// writeTestConfig writes a single-shard config rooted in a temporary
// directory and points SERVERLINK_CONFIG at it.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	content := "shard:\n" +
		"  run_dir: " + filepath.Join(root, "run") + "\n" +
		"store:\n" +
		"  path: " + filepath.Join(root, "links.db") + "\n" +
		"cache:\n" +
		"  root: " + filepath.Join(root, "cache") + "\n" +
		"transport:\n" +
		"  dial_timeout: 2s\n" +
		"  operation_timeout: 5s\n"
	configPath := filepath.Join(root, "serverlink.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVERLINK_CONFIG", configPath)
	return configPath
}

// execute runs the command tree and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var output bytes.Buffer
	previous := stdout
	stdout = &output
	defer func() { stdout = previous }()
	err := Root().Execute(args)
	return output.String(), err
}

func TestLinkAndListUsers(t *testing.T) {
	writeTestConfig(t)

	if _, err := execute(t, "link", "user", "7", "--username", "Notch", "--uuid", "069a79f4"); err != nil {
		t.Fatalf("link user: %v", err)
	}
	output, err := execute(t, "list", "users", "--json")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	var users []link.User
	if err := json.Unmarshal([]byte(output), &users); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, output)
	}
	if len(users) != 1 || users[0].Username != "Notch" {
		t.Errorf("users = %+v", users)
	}

	if _, err := execute(t, "unlink", "user", "7"); err != nil {
		t.Fatalf("unlink user: %v", err)
	}
	if _, err := execute(t, "unlink", "user", "7"); err == nil {
		t.Error("second unlink succeeded")
	}
}

func TestPluginServerRoundTrip(t *testing.T) {
	configPath := writeTestConfig(t)

	served := t.TempDir()
	if err := os.MkdirAll(filepath.Join(served, "srv", "world"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(served, "srv", "world", "level.dat"), []byte("level"), 0o644); err != nil {
		t.Fatal(err)
	}
	directory, err := os.OpenRoot(served)
	if err != nil {
		t.Fatal(err)
	}
	defer directory.Close()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go newDirectoryPlugin(directory, "a3f1c2", nil).Serve(ctx, listener)
	port := strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)

	output, err := execute(t, "link", "server", "42", "--config", configPath,
		"--server-id", "survival", "--kind", "plugin", "--host", "127.0.0.1",
		"--port", port, "--hash", "a3f1c2", "--path", "/srv")
	if err != nil {
		t.Fatalf("link server: %v", err)
	}
	if !strings.Contains(output, "linked plugin server survival to guild 42") {
		t.Errorf("link output = %q", output)
	}

	output, err = execute(t, "find", "42", "level.dat")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if strings.TrimSpace(output) != "/srv/world" {
		t.Errorf("find printed %q, want /srv/world", output)
	}
	if _, err := execute(t, "find", "42", "missing.dat"); !errors.Is(err, failed) {
		t.Errorf("find of a missing file = %v, want the failed exit", err)
	}

	output, err = execute(t, "exec", "42", "say", "hello")
	if err != nil || strings.TrimSpace(output) != "succeeded" {
		t.Errorf("exec = %q, %v", output, err)
	}
	output, err = execute(t, "ban", "42", "griefer")
	if err != nil || strings.TrimSpace(output) != "succeeded" {
		t.Errorf("ban = %q, %v", output, err)
	}

	local := filepath.Join(t.TempDir(), "level.dat")
	if _, err := execute(t, "get", "42", "/srv/world/level.dat", local); err != nil {
		t.Fatalf("get: %v", err)
	}
	if data, err := os.ReadFile(local); err != nil || string(data) != "level" {
		t.Errorf("downloaded %q, %v", data, err)
	}
	if err := os.WriteFile(local, []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "put", "42", local, "/srv/world/level.dat"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(served, "srv", "world", "level.dat")); string(data) != "edited" {
		t.Errorf("uploaded file holds %q", data)
	}

	output, err = execute(t, "list", "servers", "--json")
	if err != nil {
		t.Fatalf("list servers: %v", err)
	}
	if strings.Contains(output, "a3f1c2") {
		t.Error("list printed the plugin hash")
	}

	if _, err := execute(t, "link", "server", "42", "--server-id", "creative", "--kind", "plugin",
		"--host", "127.0.0.1", "--port", port, "--hash", "wrong"); err == nil {
		t.Error("linked a server whose hash the plugin rejects")
	}
}

func TestSettingsCommands(t *testing.T) {
	writeTestConfig(t)

	if _, err := execute(t, "disable", "42", "commands", "ban"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	output, err := execute(t, "list", "settings")
	if err != nil {
		t.Fatalf("list settings: %v", err)
	}
	if !strings.Contains(output, "commands=ban") {
		t.Errorf("settings table = %q", output)
	}
	if _, err := execute(t, "enable", "42", "commands", "ban"); err != nil {
		t.Fatalf("enable: %v", err)
	}
}

func TestParseImport(t *testing.T) {
	file, err := parseImport([]byte(`{
		// guild 42's survival server
		"servers": [
			{"guild": "42", "server": {"server_id": "survival", "protocol": "ftp",
				"host": "mc.example.net", "port": 21, "user": "steve", "path": "/srv"}},
		],
		"users": [{"id": "7", "uuid": "069a79f4", "username": "Notch"}],
		"settings": [{"id": "42", "disabled": {"commands": ["ban"]}}],
	}`))
	if err != nil {
		t.Fatalf("parseImport: %v", err)
	}
	if len(file.Servers) != 1 || file.Servers[0].Server.Kind != link.FTP {
		t.Errorf("servers = %+v", file.Servers)
	}
	if len(file.Users) != 1 || file.Users[0].Username != "Notch" {
		t.Errorf("users = %+v", file.Users)
	}
	if len(file.Settings) != 1 || !file.Settings[0].IsDisabled("commands", "ban") {
		t.Errorf("settings = %+v", file.Settings)
	}

	if _, err := parseImport([]byte(`{"servers": [{"guild": "42"}]}`)); err == nil {
		t.Error("parseImport accepted a server entry without a server")
	}
}

func TestImportReportsFailures(t *testing.T) {
	writeTestConfig(t)
	importPath := filepath.Join(t.TempDir(), "links.jsonc")
	content := `{
		"users": [
			{"id": "7", "uuid": "069a79f4", "username": "Notch"},
			{"id": "8"}
		]
	}`
	if err := os.WriteFile(importPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := execute(t, "import", importPath, "--no-verify")
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Errorf("import = %v, want exit code 1", err)
	}
	if !strings.Contains(output, "FAILED user 8") || !strings.Contains(output, "imported 1 entries, 1 failed") {
		t.Errorf("import output = %q", output)
	}
}

func TestKeygen(t *testing.T) {
	identityPath := filepath.Join(t.TempDir(), "identity.txt")
	output, err := execute(t, "keygen", "--out", identityPath)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	recipient := strings.TrimSpace(output)
	if !strings.HasPrefix(recipient, "age1") {
		t.Errorf("keygen printed %q, want an age recipient", recipient)
	}

	identity, err := sealed.LoadIdentityFile(identityPath)
	if err != nil {
		t.Fatalf("LoadIdentityFile: %v", err)
	}
	if identity.Recipient() != recipient {
		t.Errorf("identity recipient %q, printed %q", identity.Recipient(), recipient)
	}
	info, err := os.Stat(identityPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("identity file mode %v, want 0600", info.Mode().Perm())
	}

	if _, err := execute(t, "keygen", "--out", identityPath); err == nil {
		t.Error("keygen overwrote an existing identity")
	}
}

func TestCBORDiagnose(t *testing.T) {
	data, err := codec.Marshal(map[string]any{"action": "verify"})
	if err != nil {
		t.Fatal(err)
	}
	capturePath := filepath.Join(t.TempDir(), "capture.cbor")
	if err := os.WriteFile(capturePath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	output, err := execute(t, "cbor", capturePath)
	if err != nil {
		t.Fatalf("cbor: %v", err)
	}
	if !strings.Contains(output, `"action"`) || !strings.Contains(output, `"verify"`) {
		t.Errorf("diagnostic = %q", output)
	}
}

func TestRedactGuild(t *testing.T) {
	guild := &link.Guild{ID: "42", Servers: []*link.Server{
		{ServerID: "survival", Kind: link.FTP, Password: "hunter2"},
		{ServerID: "creative", Kind: link.Plugin, Hash: "a3f1c2"},
	}}
	redactedGuild := redactGuild(guild)
	if redactedGuild.Servers[0].Password != redacted || redactedGuild.Servers[1].Hash != redacted {
		t.Errorf("credentials survived redaction: %+v %+v", redactedGuild.Servers[0], redactedGuild.Servers[1])
	}
	if guild.Servers[0].Password != "hunter2" {
		t.Error("redaction modified the cached guild")
	}
}

func TestRootHelp(t *testing.T) {
	if _, err := execute(t, "lnk"); err == nil || !strings.Contains(err.Error(), `did you mean "link"`) {
		t.Errorf("unknown command error = %v", err)
	}
}
