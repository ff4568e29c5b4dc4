package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hookrelay/pkg/logx"
)

// fileStore is a dependency-free journal backend: one append-only JSON
// Lines file. Pruning rewrites the file in place under the lock.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
	f    *os.File
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("journal.path is required for file driver")
	}
	if ext := filepath.Ext(path); ext == "" {
		path += ".jsonl"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{log: log, path: path, f: f}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileStore) AppendDelivery(ctx context.Context, e Entry) error {
	_ = ctx
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New("journal file closed")
	}
	return json.NewEncoder(s.f).Encode(e)
}

func (s *fileStore) RecentDeliveries(ctx context.Context, limit int) ([]Entry, error) {
	_ = ctx
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAllLocked()
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (s *fileStore) PruneDeliveries(ctx context.Context, olderThan time.Time) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, errors.New("journal file closed")
	}

	entries, err := s.readAllLocked()
	if err != nil {
		return 0, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if !e.At.Before(olderThan) {
			kept = append(kept, e)
		}
	}
	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	// Rewrite via temp file + rename so a crash mid-prune can't lose the
	// whole journal.
	tmp := s.path + ".tmp"
	tf, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(tf)
	for _, e := range kept {
		if err := enc.Encode(e); err != nil {
			_ = tf.Close()
			_ = os.Remove(tmp)
			return 0, err
		}
	}
	if err := tf.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}

	_ = s.f.Close()
	if err := os.Rename(tmp, s.path); err != nil {
		// Reopen the original so the store stays usable.
		s.f, _ = os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		return 0, err
	}
	s.f, err = os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return removed, err
	}

	s.log.Debug("journal pruned", logx.Int("removed", removed), logx.Int("kept", len(kept)))
	return removed, nil
}

func (s *fileStore) readAllLocked() ([]Entry, error) {
	rf, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer rf.Close()

	var out []Entry
	sc := bufio.NewScanner(rf)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			// Torn write at the tail; skip rather than fail the read.
			s.log.Warn("journal line skipped", logx.Err(err))
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
