package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const entryExt = ".entry"

// FileCache keeps entries as files below a directory, grouped by key type:
//
//	<dir>/migration/3f/a9...e1.entry
//	<dir>/api-render/07/c2...9b.entry
//
// Keys built by a [Keyer] already end in a sha256 digest, which becomes the
// file name; other keys are hashed. Writes go through a temporary file and
// a rename, so the CLI and a running server can share one directory.
type FileCache struct {
	dir string
}

var _ Cache = (*FileCache)(nil)

// NewFileCache opens, creating if needed, a cache directory.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

type fileEntry struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
	Data      []byte    `json:"data"`
}

// Get returns the entry for key. Expired, unreadable or colliding entries
// are removed and reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil || e.Key != key ||
		(!e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set stores data under key. A ttl of zero never expires.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Key: key, Data: data}
	if ttl > 0 {
		e.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key. Deleting a missing key is not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Clear removes the entries of one key type, or every entry when keyType is
// empty, and returns how many were removed. Scoped keys count as their key
// type: "render" also clears "api:render" entries.
func (c *FileCache) Clear(keyType string) (int, error) {
	groups, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	want := group(keyType)
	n := 0
	for _, g := range groups {
		if !g.IsDir() || (keyType != "" && g.Name() != want && !strings.HasSuffix(g.Name(), "-"+want)) {
			continue
		}
		err := filepath.WalkDir(filepath.Join(c.dir, g.Name()), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != entryExt {
				return nil
			}
			if err := os.Remove(path); err != nil {
				return err
			}
			n++
			return nil
		})
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	kind, digest := "misc", ""
	if i := strings.LastIndexByte(key, ':'); i > 0 {
		kind, digest = group(key[:i]), key[i+1:]
	}
	if !isDigest(digest) {
		sum := sha256.Sum256([]byte(key))
		digest = hex.EncodeToString(sum[:])
	}
	return filepath.Join(c.dir, kind, digest[:2], digest[2:]+entryExt)
}

// group turns a key prefix such as "api:render" into a directory name.
func group(prefix string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return '-'
	}, prefix)
}

func isDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
