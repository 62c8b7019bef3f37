// Package history keeps a local log of finished runs in a bbolt database.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"
	"time"

	bolt "go.etcd.io/bbolt"

	"sitegate/internal/report"
)

const bucketRuns = "runs"

// Entry is one finished run.
type Entry struct {
	RunID      string         `json:"run_id"`
	Kind       string         `json:"kind"`
	Target     string         `json:"target"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Aborted    bool           `json:"aborted,omitempty"`
	ExitCode   int            `json:"exit_code"`
	Summary    report.Summary `json:"summary"`
	Artifact   string         `json:"artifact,omitempty"`
}

// FromReport builds the entry for a persisted report.
func FromReport(r report.RunReport, artifact string) Entry {
	return Entry{
		RunID:      r.RunID,
		Kind:       r.Kind,
		Target:     r.Target,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Aborted:    r.Aborted,
		ExitCode:   report.ExitCode(r),
		Summary:    r.Recompute(),
		Artifact:   artifact,
	}
}

// keyLayout is RFC3339 with fixed-width nanoseconds so keys of runs started
// within the same second still sort by start time.
const keyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Key sorts chronologically: the UTC start time, then the run id.
func (e Entry) Key() []byte {
	return []byte(e.StartedAt.UTC().Format(keyLayout) + "/" + e.RunID)
}

type Store struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open creates the database and its parent directory if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores e. An entry with the same key is replaced.
func (s *Store) Append(e Entry) error {
	if e.RunID == "" {
		return errors.New("history entry has no run id")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRuns)).Put(e.Key(), data)
	})
}

// List returns up to limit entries, newest first. An empty kind matches
// every run; limit <= 0 means no limit.
func (s *Store) List(limit int, kind string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Entry{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode history entry %s: %w", k, err)
			}
			if kind != "" && e.Kind != kind {
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteTable prints entries as an aligned table.
func WriteTable(w io.Writer, entries []Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tKIND\tEXIT\tGATE\tFAILED\tP0 FAILED\tTARGET\tRUN ID")
	for _, e := range entries {
		gate := "FAIL"
		if e.Summary.GatePass && !e.Aborted {
			gate = "PASS"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d/%d\t%d/%d\t%s\t%s\n",
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.Kind, e.ExitCode, gate,
			e.Summary.Failed, e.Summary.Total,
			e.Summary.BlockingFailed, e.Summary.Blocking,
			e.Target, e.RunID)
	}
	return tw.Flush()
}

func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
