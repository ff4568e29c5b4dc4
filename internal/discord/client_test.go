package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// webhookRecorder is a fake endpoint that captures every payload and can
// be scripted to answer with failures or rate limits.
type webhookRecorder struct {
	mu       sync.Mutex
	payloads []payload
	script   []int // status codes to answer with, consumed in order; empty = 204
	retrySec string
}

func (w *webhookRecorder) handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p payload
		_ = json.Unmarshal(body, &p)

		w.mu.Lock()
		w.payloads = append(w.payloads, p)
		code := http.StatusNoContent
		if len(w.script) > 0 {
			code = w.script[0]
			w.script = w.script[1:]
		}
		retry := w.retrySec
		w.mu.Unlock()

		if code == http.StatusTooManyRequests && retry != "" {
			rw.Header().Set("Retry-After", retry)
		}
		rw.WriteHeader(code)
	}
}

func (w *webhookRecorder) received() []payload {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]payload(nil), w.payloads...)
}

func newTestClient(t *testing.T, url string, mut func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		URL:        url,
		BatchDelay: time.Hour, // never fires unless the test wants it to
		Timeout:    2 * time.Second,
	}
	if mut != nil {
		mut(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

func TestClientFlushDrainsQueue(t *testing.T) {
	t.Parallel()
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	for i := 0; i < 3; i++ {
		c.AddAlert(Alert{Title: fmt.Sprintf("alert %d", i)})
	}
	if got := c.Queued(); got != 3 {
		t.Fatalf("Queued = %d, want 3", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := c.Queued(); got != 0 {
		t.Fatalf("Queued after flush = %d, want 0", got)
	}

	var total int
	for _, p := range rec.received() {
		total += len(p.Embeds)
	}
	if total != 3 {
		t.Fatalf("endpoint received %d embeds, want 3", total)
	}
}

func TestClientContentLine(t *testing.T) {
	t.Parallel()
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.Label = "billing"
		cfg.Environment = "prod"
	})
	c.AddAlert(Alert{Title: "hi"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := rec.received()
	if len(got) != 1 {
		t.Fatalf("got %d payloads, want 1", len(got))
	}
	if got[0].Content != "**billing | prod**" {
		t.Fatalf("content = %q", got[0].Content)
	}
}

func TestContentLineParts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		label, env, want string
	}{
		{"billing", "prod", "**billing | prod**"},
		{"billing", "", "**billing**"},
		{"", "prod", "**prod**"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := contentLine(tt.label, tt.env); got != tt.want {
			t.Fatalf("contentLine(%q, %q) = %q, want %q", tt.label, tt.env, got, tt.want)
		}
	}
}

func TestClientRateLimitKeepsBatch(t *testing.T) {
	t.Parallel()
	rec := &webhookRecorder{script: []int{http.StatusTooManyRequests}, retrySec: "0"}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	c.AddAlert(Alert{Title: "rate limited once"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// First attempt got 429, second succeeded with the same batch.
	got := rec.received()
	if len(got) != 2 {
		t.Fatalf("got %d attempts, want 2", len(got))
	}
	if len(got[0].Embeds) != 1 || len(got[1].Embeds) != 1 {
		t.Fatalf("embeds per attempt = %d, %d; want 1, 1", len(got[0].Embeds), len(got[1].Embeds))
	}
	if got[0].Embeds[0].CorrelationID() != got[1].Embeds[0].CorrelationID() {
		t.Fatal("retried batch is not the same batch")
	}
	if c.Queued() != 0 {
		t.Fatalf("Queued = %d, want 0", c.Queued())
	}
}

func TestClientFailureDropsBatch(t *testing.T) {
	t.Parallel()
	rec := &webhookRecorder{script: []int{http.StatusBadRequest}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	var deliveries []Delivery
	var mu sync.Mutex
	c := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.Recorder = recorderFunc(func(_ context.Context, d Delivery) {
			mu.Lock()
			deliveries = append(deliveries, d)
			mu.Unlock()
		})
	})
	c.AddAlert(Alert{Title: "rejected"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := c.Queued(); got != 0 {
		t.Fatalf("Queued = %d, want 0 (failed batch dropped)", got)
	}
	if len(rec.received()) != 1 {
		t.Fatalf("endpoint saw %d attempts, want 1", len(rec.received()))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(deliveries) != 1 {
		t.Fatalf("recorded %d deliveries, want 1", len(deliveries))
	}
	if deliveries[0].Status != "dropped" {
		t.Fatalf("recorded status = %q, want dropped", deliveries[0].Status)
	}
	if !strings.Contains(deliveries[0].Error, "400") {
		t.Fatalf("recorded error = %q, want the response status", deliveries[0].Error)
	}
}

type recorderFunc func(ctx context.Context, d Delivery)

func (f recorderFunc) Record(ctx context.Context, d Delivery) { f(ctx, d) }

func TestClientTimerDrivenSend(t *testing.T) {
	t.Parallel()
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.BatchDelay = 20 * time.Millisecond
	})
	c.AddAlert(Alert{Title: "a"})
	c.AddAlert(Alert{Title: "b"}) // coalesces into the pending window

	deadline := time.Now().Add(3 * time.Second)
	for c.Queued() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := c.Queued(); got != 0 {
		t.Fatalf("Queued = %d, want 0 after timer send", got)
	}

	got := rec.received()
	if len(got) != 1 {
		t.Fatalf("got %d payloads, want 1 (both alerts coalesced)", len(got))
	}
	if len(got[0].Embeds) != 2 {
		t.Fatalf("payload embeds = %d, want 2", len(got[0].Embeds))
	}
}

func TestClientDisabledDequeuesWithoutSending(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "", func(cfg *Config) {
		cfg.Disabled = true
	})
	c.AddAlert(Alert{Title: "silent"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := c.Queued(); got != 0 {
		t.Fatalf("Queued = %d, want 0", got)
	}
}

func TestClientRequiresURL(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := New(Config{Disabled: true}); err != nil {
		t.Fatalf("disabled client should not require url: %v", err)
	}
}

func TestClientRejectsAlertsDuringFlush(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		once.Do(func() { <-release })
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	c.AddAlert(Alert{Title: "first"})

	flushErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		flushErr <- c.Flush(ctx)
	}()

	// Wait until the flush owns the queue, then try to add.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		flushing := c.flushing
		c.mu.Unlock()
		if flushing {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.AddAlert(Alert{Title: "late"})
	close(release)

	if err := <-flushErr; err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := c.Queued(); got != 0 {
		t.Fatalf("Queued = %d, want 0 (late alert must have been rejected)", got)
	}
}

func TestRetryAfterParsing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"5", 5 * time.Second},
		{"0", 0},
		{"", defaultRetryAfter},
		{"soon", defaultRetryAfter},
		{"-3", defaultRetryAfter},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.in); got != tt.want {
			t.Fatalf("retryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
