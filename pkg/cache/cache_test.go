package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "migration:abc", []byte("{}"), TTLMigration); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "migration:abc")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v, want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "migration:abc"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestEnabled(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	tests := []struct {
		name string
		c    Cache
		want bool
	}{
		{"nil", nil, false},
		{"null", NewNullCache(), false},
		{"null pointer", &NullCache{}, false},
		{"file", fc, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Enabled(tt.c); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashKey(t *testing.T) {
	opts := RenderKeyOpts{Page: "cover", Format: "svg", Labels: true}
	k1 := hashKey(KeyTypeRender, "abc", opts)
	if k2 := hashKey(KeyTypeRender, "abc", opts); k1 != k2 {
		t.Errorf("hashKey is not deterministic: %s != %s", k1, k2)
	}
	if !strings.HasPrefix(k1, "render:") || len(k1) != len("render:")+64 {
		t.Errorf("hashKey() = %q, want render:<sha256>", k1)
	}
	if k := hashKey(KeyTypeRender, "abd", opts); k == k1 {
		t.Error("different content hashes share a key")
	}
	opts.Sequence = true
	if k := hashKey(KeyTypeRender, "abc", opts); k == k1 {
		t.Error("different render options share a key")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// MigrationKey should include the schema in the hash
	mk1 := k.MigrationKey("hash123", MigrationKeyOpts{Schema: []string{"chart@5", "text@3"}})
	mk2 := k.MigrationKey("hash123", MigrationKeyOpts{Schema: []string{"chart@6", "text@3"}})
	if mk1 == mk2 {
		t.Error("Different schema versions should produce different keys")
	}
	if !strings.HasPrefix(mk1, "migration:") {
		t.Errorf("MigrationKey unexpected: %s", mk1)
	}
	if mk1 != k.MigrationKey("hash123", MigrationKeyOpts{Schema: []string{"chart@5", "text@3"}}) {
		t.Error("MigrationKey should be deterministic")
	}

	// RenderKey
	rk1 := k.RenderKey("hash123", RenderKeyOpts{Page: "p1", Format: "svg"})
	rk2 := k.RenderKey("hash123", RenderKeyOpts{Page: "p1", Format: "dot"})
	if rk1 == rk2 {
		t.Error("Different RenderKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "ws:123:")

	// All keys should be prefixed
	key := scoped.MigrationKey("abc", MigrationKeyOpts{})
	if key != "ws:123:"+inner.MigrationKey("abc", MigrationKeyOpts{}) {
		t.Errorf("ScopedKeyer MigrationKey unexpected: %s", key)
	}

	renderKey := scoped.RenderKey("abc", RenderKeyOpts{Format: "svg"})
	if !strings.HasPrefix(renderKey, "ws:123:render:") {
		t.Errorf("ScopedKeyer RenderKey should be prefixed: %s", renderKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.RenderKey("h", RenderKeyOpts{})
	if key != "prefix:"+NewDefaultKeyer().RenderKey("h", RenderKeyOpts{}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k1", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "k2", []byte("v2"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k1")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get(k1) = %q, %v, %v", data, hit, err)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k1"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "k1"); err != nil {
		t.Errorf("Delete of missing key should succeed: %v", err)
	}

	n, err := c.Clear("")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 1 {
		t.Errorf("Clear removed %d entries, want 1", n)
	}
	if _, hit, _ := c.Get(ctx, "k2"); hit {
		t.Error("Clear should remove k2")
	}
}

func TestFileCacheLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	render := NewDefaultKeyer().RenderKey("abc", RenderKeyOpts{Page: "cover", Format: "svg"})
	scoped := NewScopedKeyer(nil, "api:").RenderKey("abc", RenderKeyOpts{Page: "cover", Format: "svg"})
	migration := NewDefaultKeyer().MigrationKey("abc", MigrationKeyOpts{Schema: []string{"text@3"}})
	for _, key := range []string{render, scoped, migration} {
		if err := c.Set(ctx, key, []byte(key), time.Hour); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}

	digest := render[len("render:"):]
	want := filepath.Join(dir, "render", digest[:2], digest[2:]+".entry")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("render entry not at %s: %v", want, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "api-render")); err != nil {
		t.Errorf("scoped entry has no api-render group: %v", err)
	}

	n, err := c.Clear(KeyTypeRender)
	if err != nil || n != 2 {
		t.Fatalf("Clear(render) = %d, %v, want 2", n, err)
	}
	if _, hit, _ := c.Get(ctx, migration); !hit {
		t.Error("Clear(render) removed a migration entry")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "migration:x", []byte("ok"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	path := c.path("migration:x")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "migration:x"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v, want a miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry was not removed")
	}
}

func TestClearMissingDir(t *testing.T) {
	c := &FileCache{dir: filepath.Join(t.TempDir(), "gone")}
	if n, err := c.Clear(""); n != 0 || err != nil {
		t.Errorf("Clear() = %d, %v, want 0, nil", n, err)
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	plain := errors.New("WRONGTYPE")
	if IsRetryable(classify(plain)) {
		t.Error("server errors should not be retryable")
	}
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	err := classify(netErr)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("connection errors should be retryable network errors: %v", err)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("Retryable(ErrNetwork) = %v, want a retryable network error", err)
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), ErrNetwork.Error())
	}
	if IsRetryable(ErrNetwork) {
		t.Error("unwrapped errors should not be retryable")
	}
}

func TestBackoffRetry(t *testing.T) {
	fatal := errors.New("WRONGTYPE")
	fast := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		backoff   Backoff
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{"first try", fast, 0, nil, 1, nil},
		{"recovers", fast, 2, Retryable(ErrNetwork), 3, nil},
		{"gives up", fast, 5, Retryable(ErrNetwork), 3, ErrNetwork},
		{"not retryable", fast, 5, fatal, 1, fatal},
		{"single attempt", Backoff{Attempts: 1}, 5, Retryable(ErrNetwork), 1, ErrNetwork},
		{"zero policy", Backoff{}, 5, Retryable(ErrNetwork), 1, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := tt.backoff.Retry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Retry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Backoff{Attempts: 3, Delay: time.Hour}.Retry(ctx, func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled || calls != 1 {
		t.Errorf("Retry() = %v after %d calls, want context.Canceled after 1", err, calls)
	}
}
