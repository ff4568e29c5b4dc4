package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"hookrelay/pkg/logx"
)

// Store is the delivery-journal API used by core and maintenance.
type Store interface {
	AppendDelivery(ctx context.Context, e Entry) error
	RecentDeliveries(ctx context.Context, limit int) ([]Entry, error)
	PruneDeliveries(ctx context.Context, olderThan time.Time) (int, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if the journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
