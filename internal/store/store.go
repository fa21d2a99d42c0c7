// Package store persists enriched records as per-day JSON bucket files
// under a data directory. Files are the system's durability boundary:
// writes go through a temp file and an atomic rename, and readers
// tolerate missing or partially written buckets.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Record is one enriched post as stored on disk.
type Record struct {
	ID            string    `json:"id"`
	Author        string    `json:"author"`
	CreatedAt     string    `json:"created_at"`
	OriginalText  string    `json:"original_text"`
	SourceURL     string    `json:"source_url"`
	AITitle       string    `json:"ai_title"`
	AITranslation string    `json:"ai_translation"`
	AIAnalysis    string    `json:"ai_analysis"`
	AIFailed      bool      `json:"ai_failed,omitempty"`
	FailureKind   string    `json:"failure_kind,omitempty"`
	IngestedAt    time.Time `json:"ingested_at"`
	ProcessedDate string    `json:"processed_date"`
}

// Store reads and writes day-bucket files. Safe for concurrent use
// within one process; the whole design assumes a single writer process.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New opens (and creates if needed) a store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) bucketPath(date string) string {
	return filepath.Join(s.dir, "tweets_"+date+".json")
}

// Append inserts rec into its day bucket unless a record with the same
// id is already there. It reports whether the record was inserted.
func (s *Store) Append(rec Record) (bool, error) {
	if rec.ID == "" {
		return false, fmt.Errorf("record has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.bucketPath(rec.ProcessedDate)
	existing := readBucket(path)
	for _, r := range existing {
		if r.ID == rec.ID {
			return false, nil
		}
	}
	existing = append(existing, rec)
	if err := writeBucket(path, existing); err != nil {
		return false, err
	}
	return true, nil
}

// LoadDate returns the records of one day bucket, oldest first.
// A missing or unreadable bucket yields an empty slice.
func (s *Store) LoadDate(date string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readBucket(s.bucketPath(date))
}

// FilterOptions narrows LoadAll results.
type FilterOptions struct {
	Author    string
	StartDate string // inclusive, "2006-01-02"
	EndDate   string // inclusive
}

// LoadAll returns every stored record, newest ingested first,
// optionally filtered. Buckets that fail to parse are skipped.
func (s *Store) LoadAll(opts FilterOptions) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "tweets_*.json"))
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	var out []Record
	for _, path := range paths {
		date := bucketDate(path)
		if opts.StartDate != "" && date < opts.StartDate {
			continue
		}
		if opts.EndDate != "" && date > opts.EndDate {
			continue
		}
		for _, r := range readBucket(path) {
			if opts.Author != "" && !strings.EqualFold(r.Author, opts.Author) {
				continue
			}
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].IngestedAt.After(out[j].IngestedAt)
	})
	return out, nil
}

// Get returns the record with the given id, searching all buckets.
func (s *Store) Get(id string) (Record, bool) {
	recs, err := s.LoadAll(FilterOptions{})
	if err != nil {
		return Record{}, false
	}
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Deduplicate rewrites every bucket keeping the first occurrence of
// each id. It returns how many duplicate records were dropped.
func (s *Store) Deduplicate() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "tweets_*.json"))
	if err != nil {
		return 0, fmt.Errorf("list buckets: %w", err)
	}

	removed := 0
	for _, path := range paths {
		recs := readBucket(path)
		seen := make(map[string]bool, len(recs))
		kept := recs[:0]
		for _, r := range recs {
			if seen[r.ID] {
				removed++
				continue
			}
			seen[r.ID] = true
			kept = append(kept, r)
		}
		if len(kept) == len(recs) {
			continue
		}
		if err := writeBucket(path, kept); err != nil {
			return removed, err
		}
		slog.Info("bucket deduplicated", "bucket", filepath.Base(path), "kept", len(kept))
	}
	return removed, nil
}

func bucketDate(path string) string {
	name := filepath.Base(path)
	name = strings.TrimPrefix(name, "tweets_")
	return strings.TrimSuffix(name, ".json")
}

func readBucket(path string) []Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		// Partial or corrupt bucket, likely a crashed writer. Treat as
		// empty rather than failing the scan.
		slog.Warn("skipping unreadable bucket", "path", path, "error", err)
		return nil
	}
	return recs
}

func writeBucket(path string, recs []Record) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bucket: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write bucket: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename bucket: %w", err)
	}
	return nil
}
