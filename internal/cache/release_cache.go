// Package cache provides in-memory caches for flakestry listings
package cache

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/flakestry/flakestry/internal/models"
)

// CachedReleases holds one cached release listing
type CachedReleases struct {
	Releases  []*models.FlakeReleaseCompact
	CreatedAt time.Time
	LastUsed  time.Time
	Size      int64 // Estimated memory size
}

// ReleaseCache caches release listings by key with a max age and a max entry count
type ReleaseCache struct {
	cache       map[string]*CachedReleases
	mutex       sync.Mutex
	maxEntries  int           // Maximum number of cached listings
	maxAge      time.Duration // Maximum age of entries
	cleanupTick time.Duration // How often to run cleanup
	stopCleanup chan struct{}
	stopOnce    sync.Once
	cachedSize  int64 // Size of the cache in bytes
	hits        int64 // Cache hit counter
	misses      int64 // Cache miss counter

	now func() time.Time
}

// NewReleaseCache creates a new release cache with specified limits
func NewReleaseCache(maxEntries int, maxAge time.Duration) *ReleaseCache {
	return newReleaseCache(maxEntries, maxAge, time.Now)
}

func newReleaseCache(maxEntries int, maxAge time.Duration, now func() time.Time) *ReleaseCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	rc := &ReleaseCache{
		cache:       make(map[string]*CachedReleases),
		maxEntries:  maxEntries,
		maxAge:      maxAge,
		cleanupTick: time.Minute,
		stopCleanup: make(chan struct{}),
		now:         now,
	}

	go rc.cleanup()

	return rc
}

// Get returns the cached releases for key
func (rc *ReleaseCache) Get(key string) ([]*models.FlakeReleaseCompact, bool) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	entry, exists := rc.cache[key]
	if !exists {
		rc.misses++
		return nil, false
	}

	now := rc.now()
	if now.Sub(entry.CreatedAt) > rc.maxAge {
		rc.removeLocked(key)
		rc.misses++
		return nil, false
	}

	rc.hits++
	entry.LastUsed = now
	return entry.Releases, true
}

// Set stores releases under key, evicting the least recently used entry when full
func (rc *ReleaseCache) Set(key string, releases []*models.FlakeReleaseCompact) {
	now := rc.now()
	entry := &CachedReleases{
		Releases:  releases,
		CreatedAt: now,
		LastUsed:  now,
		Size:      estimateSize(releases),
	}

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	// Remove old entry if it exists
	if old, exists := rc.cache[key]; exists {
		rc.cachedSize -= old.Size
	}
	rc.cache[key] = entry
	rc.cachedSize += entry.Size

	rc.evictIfNeeded()
	log.Printf("[CACHE]: Cached %d releases under %q", len(releases), key)
}

// Clear removes all cache entries
func (rc *ReleaseCache) Clear() {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	count := len(rc.cache)
	rc.cache = make(map[string]*CachedReleases)
	rc.cachedSize = 0
	log.Printf("[CACHE]: Cleared all cache entries (%d entries)", count)
}

// GetStats returns cache statistics
func (rc *ReleaseCache) GetStats() map[string]interface{} {
	rc.mutex.Lock()
	entryCount := len(rc.cache)
	hits := rc.hits
	misses := rc.misses
	size := rc.cachedSize
	rc.mutex.Unlock()

	totalRequests := hits + misses
	hitRate := 0.0
	if totalRequests > 0 {
		hitRate = float64(hits) / float64(totalRequests) * 100
	}

	return map[string]interface{}{
		"entries":     entryCount,
		"max_entries": rc.maxEntries,
		"size_bytes":  size,
		"size_human":  humanSize(size),
		"max_age":     rc.maxAge.String(),
		"hits":        hits,
		"misses":      misses,
		"hit_rate":    hitRate,
	}
}

// Stop shuts down the cleanup goroutine. Safe to call more than once.
func (rc *ReleaseCache) Stop() {
	rc.stopOnce.Do(func() { close(rc.stopCleanup) })
}

// removeLocked must be called with the mutex held
func (rc *ReleaseCache) removeLocked(key string) {
	if entry, exists := rc.cache[key]; exists {
		rc.cachedSize -= entry.Size
		delete(rc.cache, key)
	}
}

// evictIfNeeded removes the least recently used entries while the cache is over capacity
// (must be called with lock held)
func (rc *ReleaseCache) evictIfNeeded() {
	for len(rc.cache) > rc.maxEntries {
		var oldestKey string
		var oldestTime time.Time
		for key, entry := range rc.cache {
			if oldestKey == "" || entry.LastUsed.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.LastUsed
			}
		}
		rc.removeLocked(oldestKey)
		log.Printf("[CACHE]: Evicted oldest entry: %s", oldestKey)
	}
}

// cleanup runs periodically to remove expired entries
func (rc *ReleaseCache) cleanup() {
	ticker := time.NewTicker(rc.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.cleanupExpired()
		case <-rc.stopCleanup:
			return
		}
	}
}

// cleanupExpired removes expired cache entries
func (rc *ReleaseCache) cleanupExpired() {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	now := rc.now()
	expired := 0
	for key, entry := range rc.cache {
		if now.Sub(entry.CreatedAt) > rc.maxAge {
			rc.removeLocked(key)
			expired++
		}
	}
	if expired > 0 {
		log.Printf("[CACHE]: Cleaned up %d expired entries", expired)
	}
}

// estimateSize calculates rough memory usage of a release listing
func estimateSize(releases []*models.FlakeReleaseCompact) int64 {
	size := int64(100) // Base overhead
	for _, r := range releases {
		if r == nil {
			continue
		}
		size += 120 // struct and time overhead
		size += int64(len(r.Owner) + len(r.Repo) + len(r.Version) + len(r.Description))
	}
	return size
}

func humanSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d bytes", size)
	}
	if size < 1024*1024 {
		return fmt.Sprintf("%.2f KB", float64(size)/1024.0)
	}
	return fmt.Sprintf("%.2f MB", float64(size)/(1024.0*1024.0))
}
