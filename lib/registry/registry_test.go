// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/serverlink/lib/codec"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/linkstore"
	"github.com/bureau-foundation/serverlink/lib/sealed"
	"github.com/bureau-foundation/serverlink/lib/shardbus"
	"github.com/bureau-foundation/serverlink/lib/testutil"
)

var errDiskFull = errors.New("disk full")

type testShard struct {
	endpoint *shardbus.Endpoint
	*Set
}

func newTestShard(t *testing.T, fabric *shardbus.Fabric, id string, store linkstore.Store, sealer Sealer) *testShard {
	t.Helper()
	endpoint := fabric.Join(id, nil)
	set := NewSet(SetConfig{
		Store:     store,
		Bus:       endpoint,
		Sealer:    sealer,
		CacheRoot: t.TempDir(),
	})
	return &testShard{endpoint: endpoint, Set: set}
}

func testServer(serverID string) *link.Server {
	return &link.Server{
		ServerID: serverID,
		Kind:     link.FTP,
		Host:     "mc.example.net",
		Port:     21,
		Username: "steve",
		Password: "hunter2",
		Path:     "/srv/minecraft",
		Version:  "20",
		LinkedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testGuild(id string, serverIDs ...string) *link.Guild {
	guild := &link.Guild{ID: id}
	for _, serverID := range serverIDs {
		guild.Servers = append(guild.Servers, testServer(serverID))
	}
	return guild
}

func serverIDs(guild *link.Guild) []string {
	var ids []string
	for _, server := range guild.Servers {
		ids = append(ids, server.ServerID)
	}
	return ids
}

func TestConnectReplicatesToSiblings(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)
	shardC := newTestShard(t, fabric, "shard-c", store, nil)

	stored, err := shardA.Servers.Connect(ctx, testGuild("42", "survival"))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if stored.ID != "42" {
		t.Errorf("Connect returned guild %q, want 42", stored.ID)
	}

	for _, shard := range []*testShard{shardA, shardB, shardC} {
		guild, ok := shard.Servers.Get("42")
		if !ok {
			t.Fatalf("%s: guild 42 not cached", shard.endpoint.Self())
		}
		server := guild.Primary()
		if server == nil || server.ServerID != "survival" || server.Host != "mc.example.net" {
			t.Errorf("%s: primary server = %+v", shard.endpoint.Self(), server)
		}
		if !server.LinkedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("%s: LinkedAt = %v", shard.endpoint.Self(), server.LinkedAt)
		}
	}
	if got := store.Len(link.Servers); got != 1 {
		t.Errorf("store holds %d server records, want 1", got)
	}
}

func TestConnectMergesServersByServerID(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)

	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "survival")); err != nil {
		t.Fatalf("Connect survival: %v", err)
	}
	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "creative")); err != nil {
		t.Fatalf("Connect creative: %v", err)
	}

	replacement := testGuild("42", "survival")
	replacement.Servers[0].Host = "new.example.net"
	merged, err := shardA.Servers.Connect(ctx, replacement)
	if err != nil {
		t.Fatalf("Connect replacement: %v", err)
	}

	if got, want := serverIDs(merged), []string{"survival", "creative"}; !slices.Equal(got, want) {
		t.Errorf("merged servers = %v, want %v", got, want)
	}
	if server, _ := merged.Server("survival"); server.Host != "new.example.net" {
		t.Errorf("survival host = %q, want new.example.net", server.Host)
	}

	sibling, ok := shardB.Servers.Get("42")
	if !ok {
		t.Fatal("sibling missing guild 42")
	}
	if got, want := serverIDs(sibling), []string{"survival", "creative"}; !slices.Equal(got, want) {
		t.Errorf("sibling servers = %v, want %v", got, want)
	}
}

func TestConnectRollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)

	store.FailWrites(errDiskFull)
	_, err := shardA.Servers.Connect(ctx, testGuild("42", "survival"))

	var persistenceError *PersistenceError
	if !errors.As(err, &persistenceError) {
		t.Fatalf("Connect error = %v, want *PersistenceError", err)
	}
	if persistenceError.Op != "write" || persistenceError.ID != "42" {
		t.Errorf("PersistenceError = %+v", persistenceError)
	}
	if !errors.Is(err, errDiskFull) {
		t.Errorf("error does not wrap the store failure: %v", err)
	}
	if _, ok := shardA.Servers.Get("42"); ok {
		t.Error("failed connect left guild 42 in the cache")
	}
	if _, ok := shardB.Servers.Get("42"); ok {
		t.Error("failed connect was broadcast to the sibling")
	}
}

func TestMergeRollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)

	original, err := shardA.Servers.Connect(ctx, testGuild("42", "survival"))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	store.FailWrites(errDiskFull)
	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "creative")); err == nil {
		t.Fatal("Connect succeeded with failing store")
	}

	cached, ok := shardA.Servers.Get("42")
	if !ok {
		t.Fatal("failed merge evicted the previous entry")
	}
	if cached != original {
		t.Errorf("cache holds %v, want the pre-merge entry restored", serverIDs(cached))
	}
	sibling, _ := shardB.Servers.Get("42")
	if got := serverIDs(sibling); !slices.Equal(got, []string{"survival"}) {
		t.Errorf("sibling servers = %v, want [survival]", got)
	}
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)

	if _, err := shardA.Users.Connect(ctx, &link.User{ID: "7", UUID: "069a79f4", Username: "Notch"}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, ok := shardB.Users.Get("7"); !ok {
		t.Fatal("sibling missing user 7 after connect")
	}

	// Disconnecting from the sibling removes the link everywhere.
	removed, err := shardB.Users.Disconnect(ctx, "7")
	if err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if !removed {
		t.Fatal("Disconnect returned false for a cached user")
	}
	for _, shard := range []*testShard{shardA, shardB} {
		if _, ok := shard.Users.Get("7"); ok {
			t.Errorf("%s still caches user 7", shard.endpoint.Self())
		}
	}
	if got := store.Len(link.Users); got != 0 {
		t.Errorf("store holds %d user records after disconnect", got)
	}

	removed, err = shardA.Users.Disconnect(ctx, "7")
	if err != nil || removed {
		t.Errorf("second Disconnect = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestDisconnectKeepsCacheOnDeleteFailure(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)

	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "survival")); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	store.FailWrites(errDiskFull)
	removed, err := shardA.Servers.Disconnect(ctx, "42")
	if removed {
		t.Error("Disconnect reported success with failing store")
	}
	var persistenceError *PersistenceError
	if !errors.As(err, &persistenceError) || persistenceError.Op != "delete" {
		t.Fatalf("Disconnect error = %v, want delete *PersistenceError", err)
	}
	if _, ok := shardA.Servers.Get("42"); !ok {
		t.Error("failed disconnect removed guild 42 from the cache")
	}
	if _, ok := shardB.Servers.Get("42"); !ok {
		t.Error("failed disconnect was broadcast to the sibling")
	}
}

func TestDisconnectTreatsMissingRecordAsDeleted(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	shard := newTestShard(t, shardbus.NewFabric(), "shard-a", store, nil)

	payload, err := codec.Marshal(&link.User{ID: "7", Username: "Notch"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	err = shard.Users.Apply(context.Background(), shardbus.Event{
		Kind: shardbus.Add, Category: link.Users, ID: "7", Payload: payload, Origin: "elsewhere",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	removed, err := shard.Users.Disconnect(ctx, "7")
	if err != nil || !removed {
		t.Fatalf("Disconnect = (%v, %v), want (true, nil)", removed, err)
	}
	if _, ok := shard.Users.Get("7"); ok {
		t.Error("user 7 still cached")
	}
}

func TestConnectThenDisconnectRestoresState(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)

	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "survival")); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := shardA.Servers.Disconnect(ctx, "42"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	for _, shard := range []*testShard{shardA, shardB} {
		if shard.Servers.Len() != 0 {
			t.Errorf("%s caches %v", shard.endpoint.Self(), shard.Servers.IDs())
		}
	}
	records, err := store.Find(ctx, link.Servers, linkstore.Filter{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("store holds %d records", len(records))
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	shard := newTestShard(t, shardbus.NewFabric(), "shard-a", linkstore.NewMemoryStore(), nil)

	payload, err := codec.Marshal(testGuild("42", "survival"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	add := shardbus.Event{Kind: shardbus.Add, Category: link.Servers, ID: "42", Payload: payload, Origin: "shard-b"}
	for range 2 {
		if err := shard.Servers.Apply(ctx, add); err != nil {
			t.Fatalf("Apply add: %v", err)
		}
	}
	if shard.Servers.Len() != 1 {
		t.Fatalf("Len after duplicate add = %d, want 1", shard.Servers.Len())
	}
	guild, _ := shard.Servers.Get("42")
	if got := serverIDs(guild); !slices.Equal(got, []string{"survival"}) {
		t.Errorf("servers after duplicate add = %v", got)
	}

	remove := shardbus.Event{Kind: shardbus.Remove, Category: link.Servers, ID: "42", Origin: "shard-b"}
	for range 2 {
		if err := shard.Servers.Apply(ctx, remove); err != nil {
			t.Fatalf("Apply remove: %v", err)
		}
	}
	if shard.Servers.Len() != 0 {
		t.Errorf("Len after duplicate remove = %d, want 0", shard.Servers.Len())
	}
}

func TestApplyRejectsMismatchedEvents(t *testing.T) {
	ctx := context.Background()
	shard := newTestShard(t, shardbus.NewFabric(), "shard-a", linkstore.NewMemoryStore(), nil)

	payload, err := codec.Marshal(testGuild("42"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if err := shard.Users.Apply(ctx, shardbus.Event{Kind: shardbus.Add, Category: link.Servers, ID: "42", Payload: payload}); err == nil {
		t.Error("users registry accepted a servers event")
	}
	if err := shard.Servers.Apply(ctx, shardbus.Event{Kind: shardbus.Add, Category: link.Servers, ID: "43", Payload: payload}); err == nil {
		t.Error("Apply accepted a payload whose id differs from the event id")
	}
	if shard.Servers.Len() != 0 {
		t.Errorf("rejected events changed the cache: %v", shard.Servers.IDs())
	}
}

func TestDetachedSiblingMissesBroadcast(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)

	shardB.endpoint.Detach()
	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "survival")); err != nil {
		t.Fatalf("Connect with unreachable sibling: %v", err)
	}
	if _, ok := shardB.Servers.Get("42"); ok {
		t.Error("detached sibling received the broadcast")
	}

	// The store is authoritative: a reload recovers the missed write.
	shardB.endpoint.Attach()
	if err := shardB.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if _, ok := shardB.Servers.Get("42"); !ok {
		t.Error("reload did not recover guild 42")
	}
}

func TestReloadAssociatesSettings(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	writer := newTestShard(t, shardbus.NewFabric(), "writer", store, nil)

	if _, err := writer.Servers.Connect(ctx, testGuild("42", "survival")); err != nil {
		t.Fatalf("Connect guild: %v", err)
	}
	if _, err := writer.Servers.Connect(ctx, testGuild("43", "skyblock")); err != nil {
		t.Fatalf("Connect guild: %v", err)
	}
	settings := (&link.Settings{ID: "42"}).WithDisabled(link.ToggleCommands, "ban")
	if _, err := writer.Settings.Connect(ctx, settings); err != nil {
		t.Fatalf("Connect settings: %v", err)
	}

	reader := newTestShard(t, shardbus.NewFabric(), "reader", store, nil)
	if err := reader.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	testutil.RequireClosed(t, reader.Servers.Ready(), time.Second, "servers ready")
	testutil.RequireClosed(t, reader.Settings.Ready(), time.Second, "settings ready")
	testutil.RequireClosed(t, reader.Users.Ready(), time.Second, "users ready")

	guild, ok := reader.Servers.Get("42")
	if !ok {
		t.Fatal("guild 42 not loaded")
	}
	if guild.Settings == nil || !guild.Settings.IsDisabled(link.ToggleCommands, "ban") {
		t.Errorf("guild 42 settings = %+v, want ban disabled", guild.Settings)
	}
	unconfigured, ok := reader.Servers.Get("43")
	if !ok {
		t.Fatal("guild 43 not loaded")
	}
	if unconfigured.Settings != nil {
		t.Errorf("guild 43 has settings %+v, want none", unconfigured.Settings)
	}
}

func TestServerReloadWaitsForSettings(t *testing.T) {
	store := linkstore.NewMemoryStore()
	shard := newTestShard(t, shardbus.NewFabric(), "shard-a", store, nil)

	done := make(chan error, 1)
	go func() { done <- shard.Servers.Reload(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("server Reload returned %v before settings were ready", err)
	case <-time.After(50 * time.Millisecond):
	}

	if err := shard.Settings.Reload(context.Background()); err != nil {
		t.Fatalf("settings Reload: %v", err)
	}
	if err := testutil.RequireReceive(t, done, time.Second, "server reload"); err != nil {
		t.Fatalf("server Reload: %v", err)
	}
	testutil.RequireClosed(t, shard.Servers.Ready(), time.Second, "servers ready")
}

func TestServerReloadHonorsCancellation(t *testing.T) {
	shard := newTestShard(t, shardbus.NewFabric(), "shard-a", linkstore.NewMemoryStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shard.Servers.Reload(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Reload error = %v, want context.Canceled", err)
	}
	select {
	case <-shard.Servers.Ready():
		t.Error("Ready closed after a cancelled reload")
	default:
	}
}

func TestReloadSkipsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	if err := store.Upsert(ctx, link.Users, "1", json.RawMessage(`{"id":"1","username":"alex"}`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, link.Users, "2", json.RawMessage(`not json`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, link.Users, "3", json.RawMessage(`{"id":"4","username":"wrong key"}`)); err != nil {
		t.Fatal(err)
	}

	shard := newTestShard(t, shardbus.NewFabric(), "shard-a", store, nil)
	if err := shard.Users.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := shard.Users.IDs(); !slices.Equal(got, []string{"1"}) {
		t.Errorf("loaded ids = %v, want [1]", got)
	}
}

func TestSettingsChangeReassociatesGuilds(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)
	for _, shard := range []*testShard{shardA, shardB} {
		if err := shard.Reload(ctx); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}

	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "survival")); err != nil {
		t.Fatalf("Connect guild: %v", err)
	}
	settings := (&link.Settings{ID: "42"}).WithDisabled(link.ToggleCommands, "ban")
	if _, err := shardA.Settings.Connect(ctx, settings); err != nil {
		t.Fatalf("Connect settings: %v", err)
	}

	for _, shard := range []*testShard{shardA, shardB} {
		guild, ok := shard.Servers.Get("42")
		if !ok {
			t.Fatalf("%s: guild 42 missing", shard.endpoint.Self())
		}
		if !guild.Settings.IsDisabled(link.ToggleCommands, "ban") {
			t.Errorf("%s: guild 42 does not see the disabled command", shard.endpoint.Self())
		}
	}

	if _, err := shardB.Settings.Replace(ctx, settings.WithEnabled(link.ToggleCommands, "ban")); err != nil {
		t.Fatalf("Replace settings: %v", err)
	}
	guild, _ := shardA.Servers.Get("42")
	if guild.Settings.IsDisabled(link.ToggleCommands, "ban") {
		t.Error("shard-a still sees ban disabled after re-enable")
	}
}

func TestSealedCredentials(t *testing.T) {
	ctx := context.Background()
	identity, _, err := sealed.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	sealer, err := sealed.NewSealer(identity)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, sealer)
	shardB := newTestShard(t, fabric, "shard-b", store, sealer)

	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "survival")); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	records, err := store.Find(ctx, link.Servers, linkstore.Filter{ID: "42"})
	if err != nil || len(records) != 1 {
		t.Fatalf("Find = (%v, %v)", records, err)
	}
	document := string(records[0].Document)
	if strings.Contains(document, "hunter2") {
		t.Error("stored document contains the plaintext password")
	}
	if !strings.Contains(document, sealed.Prefix) {
		t.Errorf("stored document has no sealed value: %s", document)
	}

	for _, shard := range []*testShard{shardA, shardB} {
		guild, _ := shard.Servers.Get("42")
		if got := guild.Primary().Password; got != "hunter2" {
			t.Errorf("%s: cached password = %q, want plaintext", shard.endpoint.Self(), got)
		}
	}

	reader := newTestShard(t, shardbus.NewFabric(), "reader", store, sealer)
	if err := reader.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	guild, ok := reader.Servers.Get("42")
	if !ok || guild.Primary().Password != "hunter2" {
		t.Errorf("reloaded guild = %+v, want plaintext password", guild)
	}
}

func TestTwoShardReplicationScenario(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	fabric := shardbus.NewFabric()
	shardA := newTestShard(t, fabric, "shard-a", store, nil)
	shardB := newTestShard(t, fabric, "shard-b", store, nil)

	if _, err := shardA.Servers.Connect(ctx, testGuild("42", "survival")); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	guild, ok := shardB.Servers.Get("42")
	if !ok || guild.Primary().Host != "mc.example.net" {
		t.Fatalf("shard-b view of 42 = %+v", guild)
	}

	if _, err := shardB.Servers.Disconnect(ctx, "42"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if _, ok := shardA.Servers.Get("42"); ok {
		t.Error("shard-a still caches 42 after shard-b disconnected it")
	}
	if store.Len(link.Servers) != 0 {
		t.Error("store still holds 42")
	}
}

func TestPurgeCache(t *testing.T) {
	root := t.TempDir()
	registry := New(Config[*link.Guild]{
		Category:  link.Servers,
		Store:     linkstore.NewMemoryStore(),
		CacheRoot: root,
	})

	directory, err := registry.CacheDir("42")
	if err != nil {
		t.Fatalf("CacheDir: %v", err)
	}
	if want := filepath.Join(root, "servers", "42"); directory != want {
		t.Errorf("CacheDir = %q, want %q", directory, want)
	}
	if err := os.MkdirAll(filepath.Join(directory, "world"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(directory, "world", "level.dat"), []byte("nbt"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !registry.PurgeCache("42") {
		t.Fatal("PurgeCache returned false for an existing directory")
	}
	if _, err := os.Stat(directory); !os.IsNotExist(err) {
		t.Errorf("cache directory still present: %v", err)
	}
	if registry.PurgeCache("42") {
		t.Error("PurgeCache returned true for a missing directory")
	}
	for _, id := range []string{"", ".", "..", "../etc", `a\b`} {
		if registry.PurgeCache(id) {
			t.Errorf("PurgeCache(%q) returned true", id)
		}
	}

	unconfigured := New(Config[*link.User]{Category: link.Users, Store: linkstore.NewMemoryStore()})
	if unconfigured.PurgeCache("42") {
		t.Error("PurgeCache without a cache root returned true")
	}
}
