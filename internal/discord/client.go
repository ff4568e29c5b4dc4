package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"hookrelay/pkg/logx"
)

const (
	defaultSuffix     = "..."
	defaultBatchDelay = 10 * time.Second
	defaultTimeout    = 15 * time.Second

	// flushInterval is the short delay between batches while draining.
	// A flush ignores the configured batch delay; only rate-limit waits
	// are honored.
	flushInterval = 50 * time.Millisecond
)

// Delivery describes one attempted batch, for the optional recorder.
type Delivery struct {
	At     time.Time
	Status string // sent, rate_limited, dropped, disabled
	Embeds int
	Chars  int
	Error  string
}

// Recorder receives one record per attempted batch. Implementations must
// not block for long; the dispatcher calls it inline between sends.
type Recorder interface {
	Record(ctx context.Context, d Delivery)
}

// Config configures a webhook client.
type Config struct {
	// URL is the webhook endpoint. Required unless Disabled.
	URL string

	// Label and Environment build the payload content line
	// ("**label | environment**"); empty parts are omitted.
	Label       string
	Environment string

	// Disabled simulates sends: batches are logged and dequeued but
	// never transmitted.
	Disabled bool

	// Suffix is appended to truncated strings. Default "...".
	Suffix string

	// BatchDelay is the coalescing window between an alert arriving and
	// its batch going out. Default 10s.
	BatchDelay time.Duration

	// SendsPerMinute caps outbound POSTs ahead of the endpoint's own
	// rate limiting. 0 disables the proactive limiter.
	SendsPerMinute int

	// Timeout bounds each POST. Default 15s.
	Timeout time.Duration

	Logger   logx.Logger
	Recorder Recorder
}

func (c Config) withDefaults() Config {
	if c.Suffix == "" {
		c.Suffix = defaultSuffix
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = defaultBatchDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Logger.IsZero() {
		c.Logger = logx.Nop()
	}
	return c
}

// Client owns the pending-embed queue and drains it with timer-driven
// batch sends.
//
// Queue, flags and timer are guarded by one mutex; the lock is never held
// across a POST or a wait, so the scheduling decisions stay atomic the way
// the single-threaded model requires while sends run unlocked.
type Client struct {
	log      logx.Logger
	httpc    *http.Client
	url      string
	content  string
	suffix   string
	disabled bool
	delay    time.Duration
	limiter  *rate.Limiter
	recorder Recorder

	mu        sync.Mutex
	queue     []*Embed
	timer     *time.Timer
	sending   bool
	flushing  bool
	flushDone chan struct{}
}

// New builds a Client. The URL is required unless the client is disabled.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.URL == "" && !cfg.Disabled {
		return nil, errors.New("discord: webhook url is required")
	}

	c := &Client{
		log:      cfg.Logger.With(logx.String("comp", "discord")),
		httpc:    newHTTPClient(cfg.Timeout),
		url:      cfg.URL,
		content:  contentLine(cfg.Label, cfg.Environment),
		suffix:   cfg.Suffix,
		disabled: cfg.Disabled,
		delay:    cfg.BatchDelay,
		recorder: cfg.Recorder,
	}
	if cfg.SendsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.SendsPerMinute)/60.0), 1)
	}
	return c, nil
}

// contentLine renders the bolded "label | environment" prefix, skipping
// empty parts entirely.
func contentLine(label, env string) string {
	parts := make([]string, 0, 2)
	if label != "" {
		parts = append(parts, label)
	}
	if env != "" {
		parts = append(parts, env)
	}
	if len(parts) == 0 {
		return ""
	}
	return "**" + strings.Join(parts, " | ") + "**"
}

// AddAlert segments and packs the alert and enqueues the resulting embeds.
// It never returns an error: alerts arriving during a flush are dropped
// with a warning, everything else is accepted.
func (c *Client) AddAlert(a Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.flushing {
		c.log.Warn("alert dropped, flush in progress", logx.String("title", a.Title))
		return
	}

	id := uuid.NewString()
	embeds := pack(toSegments(a, c.suffix), a.Level, id, time.Now())
	c.queue = append(c.queue, embeds...)
	c.log.Debug("alert enqueued",
		logx.String("alert_id", id),
		logx.Int("embeds", len(embeds)),
		logx.Int("queued", len(c.queue)))

	if c.timer == nil && !c.sending {
		c.scheduleLocked(c.delay)
	}
}

// Queued reports the number of pending embeds.
func (c *Client) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Flush drains the queue completely, batch by batch, and returns once it
// is empty or ctx is done. A flush overlapping another flush waits for the
// first to finish before draining whatever is left. Alerts added while a
// flush runs are rejected by AddAlert.
func (c *Client) Flush(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.flushing {
			c.flushing = true
			c.flushDone = make(chan struct{})
			if c.timer != nil {
				c.timer.Stop()
				c.timer = nil
			}
			c.mu.Unlock()
			break
		}
		done := c.flushDone
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	defer func() {
		c.mu.Lock()
		c.flushing = false
		close(c.flushDone)
		c.mu.Unlock()
	}()

	for {
		out := c.sendBatch(ctx, false)
		if out.remaining == 0 {
			return nil
		}
		wait := flushInterval
		if out.rateLimited {
			wait = out.retryAfter
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Stop cancels the pending timer. The queue is left intact; an in-flight
// POST cannot be interrupted.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Client) scheduleLocked(d time.Duration) {
	c.timer = time.AfterFunc(d, c.tick)
}

func (c *Client) tick() {
	c.mu.Lock()
	if c.flushing {
		// A flush raced the timer; it owns the queue now.
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	c.sendBatch(context.Background(), true)
}

type sendOutcome struct {
	remaining   int
	rateLimited bool
	retryAfter  time.Duration
}

// sendBatch performs one send step: select a batch, deliver it, update the
// queue. With reschedule set, it arms the timer itself when work remains;
// a flush passes false and drives the pacing in its own loop.
func (c *Client) sendBatch(ctx context.Context, reschedule bool) sendOutcome {
	c.mu.Lock()
	if c.sending {
		// A timer tick raced a flush into the send step. Whoever got
		// here first owns the queue head; report the work as pending.
		out := sendOutcome{remaining: len(c.queue)}
		c.mu.Unlock()
		return out
	}
	batch := nextBatch(c.queue, MaxEmbedsPerPayload)
	if len(batch) == 0 {
		var out sendOutcome
		if len(c.queue) > 0 {
			// The head alone exceeds the payload budget. The packer
			// can't produce such an embed under the current limits;
			// drop it rather than wedge the queue forever.
			head := c.queue[0]
			c.queue = c.queue[1:]
			c.log.Error("oversized embed dropped", logx.Int("chars", head.Chars()))
			out.remaining = len(c.queue)
		}
		c.mu.Unlock()
		return out
	}
	batch = append([]*Embed(nil), batch...)
	chars := 0
	for _, e := range batch {
		chars += e.Chars()
	}
	c.sending = true
	c.mu.Unlock()

	status, retry, err := c.deliver(ctx, batch)
	c.record(ctx, status, batch, chars, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false

	out := sendOutcome{}
	switch status {
	case sendRateLimited:
		// Batch stays queued; try again when the endpoint asks.
		out.rateLimited = true
		out.retryAfter = retry
		c.log.Info("rate limited, send deferred",
			logx.Duration("retry_after", retry),
			logx.Int("embeds", len(batch)))
	case sendFailed:
		// Best effort: a persistently failing endpoint must not grow
		// the queue without bound, so the batch is dropped.
		c.queue = c.queue[len(batch):]
		c.log.Error("send failed, batch dropped", logx.Err(err), logx.Int("embeds", len(batch)))
	default:
		c.queue = c.queue[len(batch):]
	}
	out.remaining = len(c.queue)

	if reschedule && out.remaining > 0 && !c.flushing {
		d := c.delay
		if out.rateLimited {
			d = out.retryAfter
		}
		c.scheduleLocked(d)
	}
	return out
}

// deliver pushes one batch through the transport, or simulates it when the
// client is disabled.
func (c *Client) deliver(ctx context.Context, batch []*Embed) (sendStatus, time.Duration, error) {
	if c.disabled {
		c.log.Info("webhook disabled, batch not sent", logx.Int("embeds", len(batch)))
		return sendOK, 0, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return sendFailed, 0, err
		}
	}
	status, retry, err := c.post(ctx, batch)
	if status == sendOK {
		c.log.Info("batch sent", logx.Int("embeds", len(batch)))
	}
	return status, retry, err
}

func (c *Client) record(ctx context.Context, status sendStatus, batch []*Embed, chars int, err error) {
	if c.recorder == nil {
		return
	}
	d := Delivery{
		At:     time.Now(),
		Embeds: len(batch),
		Chars:  chars,
	}
	switch {
	case c.disabled:
		d.Status = "disabled"
	case status == sendOK:
		d.Status = "sent"
	case status == sendRateLimited:
		d.Status = "rate_limited"
	default:
		d.Status = "dropped"
		if err != nil {
			d.Error = err.Error()
		}
	}
	c.recorder.Record(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
