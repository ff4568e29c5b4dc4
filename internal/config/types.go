package config

type Config struct {
	Webhook WebhookConfig `json:"webhook"`
	Intake  IntakeConfig  `json:"intake,omitempty"`
	Logging LoggingConfig `json:"logging"`

	// Journal enables the optional delivery journal. Omitted or driver
	// "none" disables it.
	Journal *JournalConfig `json:"journal,omitempty"`

	Maintenance MaintenanceConfig `json:"maintenance,omitempty"`
}

// WebhookConfig configures the outbound webhook client.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type WebhookConfig struct {
	// URL is the webhook endpoint. The HOOKRELAY_WEBHOOK_URL environment
	// variable overrides it when set (keeps the secret out of the file).
	URL string `json:"url"`

	// Label and Environment build the payload content line.
	Label       string `json:"label,omitempty"`
	Environment string `json:"environment,omitempty"`

	// Disabled simulates sends: logged, never transmitted.
	Disabled bool `json:"disabled,omitempty"`

	// Suffix is appended to truncated strings. Default "...".
	Suffix string `json:"suffix,omitempty"`

	// BatchDelay is the coalescing window before a queued batch goes
	// out. Default "10s".
	BatchDelay string `json:"batch_delay,omitempty"`

	// SendsPerMinute caps outbound POSTs ahead of the endpoint's own
	// rate limiting. 0 disables the proactive limiter.
	SendsPerMinute int `json:"sends_per_minute,omitempty"`

	// Timeout bounds each POST. Default "15s".
	Timeout string `json:"timeout,omitempty"`
}

// IntakeConfig controls the HTTP alert intake listener.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:8477").
//   - Set a token when binding to a non-loopback address.
type IntakeConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address,omitempty"` // default: "127.0.0.1:8477"
	Token   string `json:"token,omitempty"`   // optional bearer token (do not log)

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// JournalConfig controls the delivery journal.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", the journal is disabled.
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// MaintenanceConfig controls background schedules. Both schedules take
// standard 5-field cron specs (plus @every/@daily descriptors); empty
// disables the job.
type MaintenanceConfig struct {
	// FlushSchedule forces a full queue drain on schedule, so a mostly
	// idle relay doesn't sit on a sub-batch-delay tail forever after
	// bursts.
	FlushSchedule string `json:"flush_schedule,omitempty"`

	// PruneSchedule trims journal entries older than PruneMaxAge.
	PruneSchedule string `json:"prune_schedule,omitempty"`
	PruneMaxAge   string `json:"prune_max_age,omitempty"` // default "168h"
}
