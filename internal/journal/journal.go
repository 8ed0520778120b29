// Package journal records per-channel send outcomes for operator audit.
//
// The journal is strictly write-only: dispatch logic never reads it, so
// no delivery state from a previous run can influence a later one. It is
// disabled unless a driver is configured.
//
// Drivers:
//   - "file": dependency-free append-only JSON Lines
//   - "sqlite": SQLite database file (optional build tag)
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"bonjourarcade/pkg/logx"
)

var ErrDisabled = errors.New("journal disabled")

type Config struct {
	Driver string
	Path   string
}

// Entry records one channel outcome of one run.
type Entry struct {
	At      time.Time `json:"at"`
	Seed    string    `json:"seed"`
	GameID  string    `json:"game_id"`
	Channel string    `json:"channel"`
	Type    string    `json:"type"`
	State   string    `json:"state"`
	Subject string    `json:"subject,omitempty"`
	Error   string    `json:"error,omitempty"`
	DryRun  bool      `json:"dry_run,omitempty"`
}

// Journal is the minimal audit API used by the dispatcher.
type Journal interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Open initializes the configured journal.
// It returns (nil, nil) if the journal is disabled.
func Open(cfg Config, log logx.Logger) (Journal, error) {
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
