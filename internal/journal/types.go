package journal

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("journal disabled")

// Config configures the journal.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records one attempted webhook batch.
// Keep it compact and schema-stable.
type Entry struct {
	At     time.Time `json:"at"`
	Status string    `json:"status"` // sent, rate_limited, dropped, disabled
	Embeds int       `json:"embeds"`
	Chars  int       `json:"chars"`
	Error  string    `json:"err,omitempty"`
}
