package maintenance

import (
	"context"
	"sync"
	"testing"
	"time"

	"hookrelay/internal/journal"
	"hookrelay/pkg/logx"
)

type fakeFlusher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeFlusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return nil
}

type fakeStore struct {
	mu        sync.Mutex
	pruned    []time.Time
	removeRet int
}

func (s *fakeStore) AppendDelivery(context.Context, journal.Entry) error { return nil }
func (s *fakeStore) RecentDeliveries(context.Context, int) ([]journal.Entry, error) {
	return nil, nil
}
func (s *fakeStore) PruneDeliveries(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	s.pruned = append(s.pruned, olderThan)
	s.mu.Unlock()
	return s.removeRet, nil
}
func (s *fakeStore) Close() error { return nil }

func TestValidate(t *testing.T) {
	t.Parallel()
	s := New(Config{}, nil, nil, logx.Nop())

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "empty specs ok", cfg: Config{}},
		{name: "valid cron", cfg: Config{FlushSchedule: "*/5 * * * *"}},
		{name: "descriptor", cfg: Config{PruneSchedule: "@daily"}},
		{name: "every", cfg: Config{FlushSchedule: "@every 1h"}},
		{name: "bad flush", cfg: Config{FlushSchedule: "not a spec"}, wantErr: true},
		{name: "bad prune", cfg: Config{PruneSchedule: "61 * * * *"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.cfg)
			if tt.wantErr && err == nil {
				t.Fatalf("Validate(%+v): expected error", tt.cfg)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate(%+v): %v", tt.cfg, err)
			}
		})
	}
}

func TestRunFlush(t *testing.T) {
	t.Parallel()
	f := &fakeFlusher{}
	s := New(Config{}, f, nil, logx.Nop())
	s.runFlush(context.Background())

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls != 1 {
		t.Fatalf("flush calls = %d, want 1", f.calls)
	}
}

func TestRunPruneUsesMaxAge(t *testing.T) {
	t.Parallel()
	store := &fakeStore{removeRet: 2}
	s := New(Config{PruneMaxAge: time.Hour}, nil, store, logx.Nop())

	before := time.Now().Add(-time.Hour)
	s.runPrune(context.Background())
	after := time.Now().Add(-time.Hour)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.pruned) != 1 {
		t.Fatalf("prune calls = %d, want 1", len(store.pruned))
	}
	cutoff := store.pruned[0]
	if cutoff.Before(before) || cutoff.After(after) {
		t.Fatalf("cutoff = %v, want about one hour ago", cutoff)
	}
}

func TestRunPruneDefaultMaxAge(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	s := New(Config{}, nil, store, logx.Nop())
	s.runPrune(context.Background())

	store.mu.Lock()
	defer store.mu.Unlock()
	cutoff := store.pruned[0]
	want := time.Now().Add(-defaultPruneMaxAge)
	if d := cutoff.Sub(want); d < -time.Minute || d > time.Minute {
		t.Fatalf("cutoff = %v, want about %v", cutoff, want)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()
	f := &fakeFlusher{}
	s := New(Config{FlushSchedule: "@every 1h"}, f, nil, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Start(ctx) // second start is a no-op
	s.Stop()
	s.Stop() // second stop is a no-op
}
