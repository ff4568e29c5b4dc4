package discord

import (
	"context"
	"sync"
)

// Deferred is a forwarding proxy for callers that need to submit alerts
// before the client can be constructed (config still loading, credentials
// not resolved yet). Calls made before Bind are buffered and replayed in
// original order; a buffered flush runs only after every alert buffered
// ahead of it.
type Deferred struct {
	mu      sync.Mutex
	client  *Client
	pending []deferredCall
}

type deferredCall struct {
	alert Alert
	flush bool
}

// AddAlert forwards to the bound client, or buffers the alert.
func (d *Deferred) AddAlert(a Alert) {
	d.mu.Lock()
	c := d.client
	if c == nil {
		d.pending = append(d.pending, deferredCall{alert: a})
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	c.AddAlert(a)
}

// Flush forwards to the bound client. Before binding there is nothing to
// drain yet, so the call is recorded and returns immediately; it executes
// during Bind after the alerts buffered before it.
func (d *Deferred) Flush(ctx context.Context) error {
	d.mu.Lock()
	c := d.client
	if c == nil {
		d.pending = append(d.pending, deferredCall{flush: true})
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()
	return c.Flush(ctx)
}

// Stop forwards to the bound client; a no-op before binding.
func (d *Deferred) Stop() {
	d.mu.Lock()
	c := d.client
	d.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

// Bind installs the client and replays buffered calls in order. Calls
// arriving during the replay go straight to the client.
func (d *Deferred) Bind(ctx context.Context, c *Client) error {
	d.mu.Lock()
	if d.client != nil {
		d.mu.Unlock()
		return nil
	}
	d.client = c
	calls := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, call := range calls {
		if call.flush {
			if err := c.Flush(ctx); err != nil {
				return err
			}
			continue
		}
		c.AddAlert(call.alert)
	}
	return nil
}
