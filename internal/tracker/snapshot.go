package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Report describes the outcome of validating a snapshot file.
type Report struct {
	Valid   int
	Invalid []string
}

// rawEntry mirrors Entry with a string timestamp so partially broken entries
// can be inspected instead of failing the whole decode.
type rawEntry struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	FirstSeen string `json:"first_seen"`
}

// ValidateSnapshot checks a snapshot file entry by entry. It reports per-entry
// problems rather than rejecting the file on the first bad record, so an
// operator can decide whether a repair is worth it.
func ValidateSnapshot(path string) (Report, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Report{}, nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	entries := map[string]rawEntry{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Report{}, fmt.Errorf("snapshot %s is not a valid JSON mapping: %w", path, err)
	}

	var report Report
	for id, entry := range entries {
		if problem := checkEntry(id, entry); problem != "" {
			report.Invalid = append(report.Invalid, problem)
			continue
		}
		report.Valid++
	}
	return report, nil
}

// RepairSnapshot rewrites the snapshot keeping only well-formed entries.
// Returns how many entries were kept and how many dropped. An unparseable
// file is replaced with an empty mapping (all entries dropped as a unit is
// indistinguishable from data loss, which the store already tolerates).
func RepairSnapshot(path string) (kept, dropped int, err error) {
	raw, readErr := os.ReadFile(path)
	if errors.Is(readErr, os.ErrNotExist) {
		return 0, 0, nil
	}
	if readErr != nil {
		return 0, 0, fmt.Errorf("read snapshot %s: %w", path, readErr)
	}

	entries := map[string]rawEntry{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		entries = map[string]rawEntry{}
	}

	clean := map[string]Entry{}
	for id, entry := range entries {
		if checkEntry(id, entry) != "" {
			dropped++
			continue
		}
		firstSeen, _ := time.Parse(time.RFC3339, entry.FirstSeen)
		clean[id] = Entry{
			Source:    entry.Source,
			Title:     entry.Title,
			URL:       entry.URL,
			FirstSeen: firstSeen,
		}
	}

	store := NewStore(path, nil)
	store.entries = clean
	if err := store.Persist(); err != nil {
		return 0, 0, err
	}
	return len(clean), dropped, nil
}

func checkEntry(id string, entry rawEntry) string {
	if id == "" {
		return "entry with empty identity"
	}
	if entry.Source == "" && entry.Title == "" && entry.URL == "" {
		return fmt.Sprintf("%s: no source, title, or url", id)
	}
	if entry.FirstSeen == "" {
		return fmt.Sprintf("%s: missing first_seen", id)
	}
	if _, err := time.Parse(time.RFC3339, entry.FirstSeen); err != nil {
		return fmt.Sprintf("%s: bad first_seen %q", id, entry.FirstSeen)
	}
	return ""
}
