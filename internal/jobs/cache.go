package jobs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Cache is a single-slot, file-backed store for the last ranked result set.
// Save fully overwrites the previous entry; Load treats anything unreadable
// or past the freshness window as a miss.
type Cache struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
}

type cacheEntry struct {
	Timestamp time.Time  `json:"timestamp"`
	Jobs      []*Posting `json:"jobs"`
}

func NewCache(path string, logger *zap.Logger) *Cache {
	return &Cache{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Save persists the ranked postings with the current UTC timestamp. The entry
// is written to a temp file and renamed into place so concurrent readers
// never see partial contents.
func (c *Cache) Save(postings []*Posting) error {
	entry := cacheEntry{
		Timestamp: c.now().UTC(),
		Jobs:      postings,
	}

	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".jobs_cache_*.json")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), c.path)
}

// Load returns the cached postings when the entry is younger than maxAge,
// or nil when the cache is missing, unreadable, or stale. A miss is a normal
// refetch signal, never an error.
func (c *Cache) Load(maxAge time.Duration) []*Posting {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) && c.logger != nil {
			c.logger.Warn("job cache unreadable, treating as miss",
				zap.String("path", c.path),
				zap.Error(err),
			)
		}
		return nil
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		if c.logger != nil {
			c.logger.Warn("job cache corrupt, treating as miss",
				zap.String("path", c.path),
				zap.Error(err),
			)
		}
		return nil
	}

	age := c.now().UTC().Sub(entry.Timestamp)
	if age > maxAge {
		if c.logger != nil {
			c.logger.Debug("job cache stale",
				zap.Duration("age", age),
				zap.Duration("max_age", maxAge),
			)
		}
		return nil
	}

	return entry.Jobs
}
