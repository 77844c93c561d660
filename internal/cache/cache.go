// Package cache provides a file-based cache for per-archive class listings,
// so repeated runs skip re-reading dependency jars that have not changed.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Cache is a content-addressed cache directory. A disabled cache is a valid
// value on which every Get misses and every Put is a no-op.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// entry is the on-disk format of one cached archive listing.
type entry struct {
	Stamp     string    `json:"stamp"`
	Timestamp time.Time `json:"timestamp"`
	Classes   []string  `json:"classes"`
}

// New creates a cache rooted at dir with the given TTL in hours.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Cache{dir: dir, ttl: time.Duration(ttlHours) * time.Hour, enabled: true}, nil
}

// Disabled returns a cache that never hits.
func Disabled() *Cache {
	return &Cache{}
}

// ArchiveStamp derives a freshness stamp for an archive from its path, size
// and modification time. Cheaper than hashing jar contents and good enough:
// resolved archives in a local repository are effectively immutable.
func ArchiveStamp(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(fmt.Appendf(nil, "%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()))
	return hex.EncodeToString(sum[:]), nil
}

// GetClasses returns the cached class list for an archive if the stamp still
// matches and the entry has not expired.
func (c *Cache) GetClasses(archivePath, stamp string) ([]string, bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := os.ReadFile(c.keyPath(archivePath))
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if e.Stamp != stamp {
		return nil, false
	}
	if time.Since(e.Timestamp) > c.ttl {
		os.Remove(c.keyPath(archivePath))
		return nil, false
	}
	return e.Classes, true
}

// PutClasses stores the class list for an archive under its stamp.
func (c *Cache) PutClasses(archivePath, stamp string, classes []string) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(entry{
		Stamp:     stamp,
		Timestamp: time.Now(),
		Classes:   classes,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(archivePath), data, 0o600)
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath hashes the key into a filename to avoid path issues.
func (c *Cache) keyPath(key string) string {
	sum := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}
