package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SnapshotFileName is the snapshot file kept under the storage directory.
const SnapshotFileName = "processed_articles.json"

// SnapshotPath returns the snapshot location for a storage directory.
func SnapshotPath(storageDir string) string {
	return filepath.Join(storageDir, SnapshotFileName)
}

// Entry marks one article identity as processed. Written once when the identity
// is first summarized and queued; never mutated afterward except by eviction.
type Entry struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	FirstSeen time.Time `json:"first_seen"`
}

// TrackedArticle pairs an identity with its entry, for listings.
type TrackedArticle struct {
	Identity string
	Entry    Entry
}

// Store is the persistent identity → entry mapping backing deduplication.
// It is a single-writer structure: load once, mutate from one goroutine,
// persist after the run's batch of mutations. Overlapping processes are not
// supported; the snapshot carries no lock.
type Store struct {
	path    string
	entries map[string]Entry
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore builds an empty store bound to a snapshot path. Call Load before use.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:    path,
		entries: map[string]Entry{},
		logger:  logger,
		now:     time.Now,
	}
}

// Load reads the snapshot from disk. A missing file yields an empty store; a
// malformed file is treated as data loss, logged, and also yields an empty
// store. Load never fails the run over snapshot contents.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.entries = map[string]Entry{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	entries := map[string]Entry{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("tracking snapshot is malformed, starting with empty history",
			"path", s.path, "error", err)
		s.entries = map[string]Entry{}
		return nil
	}

	s.entries = entries
	return nil
}

// Persist writes the snapshot atomically: the full mapping goes to a temp file
// which is then renamed over the previous snapshot, so a failed write never
// corrupts the last valid copy.
func (s *Store) Persist() error {
	payload, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write snapshot temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	return nil
}

// Contains reports whether the identity was already processed.
func (s *Store) Contains(id string) bool {
	_, ok := s.entries[id]
	return ok
}

// Record inserts an entry for the identity if absent. Re-recording a known
// identity is a no-op: first_seen must keep the original discovery time or the
// retention math drifts on every reprocess.
func (s *Store) Record(id string, entry Entry) {
	if _, ok := s.entries[id]; ok {
		return
	}
	if entry.FirstSeen.IsZero() {
		entry.FirstSeen = s.now()
	}
	s.entries[id] = entry
}

// EvictOlderThan removes every entry whose first_seen is strictly before
// now - days. Entries sitting exactly on the boundary are retained. days = 0
// evicts everything seen before the sweep. Returns the number removed.
func (s *Store) EvictOlderThan(days int) int {
	if days < 0 {
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -days)
	removed := 0
	for id, entry := range s.entries {
		if entry.FirstSeen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities.
func (s *Store) Len() int {
	return len(s.entries)
}

// Articles lists tracked articles, newest first, optionally filtered by source
// and capped at limit (limit <= 0 means no cap).
func (s *Store) Articles(source string, limit int) []TrackedArticle {
	result := make([]TrackedArticle, 0, len(s.entries))
	for id, entry := range s.entries {
		if source != "" && entry.Source != source {
			continue
		}
		result = append(result, TrackedArticle{Identity: id, Entry: entry})
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Entry.FirstSeen.Equal(result[j].Entry.FirstSeen) {
			return result[i].Entry.FirstSeen.After(result[j].Entry.FirstSeen)
		}
		return result[i].Identity < result[j].Identity
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
