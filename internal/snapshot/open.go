package snapshot

import (
	"context"
	"errors"
	"strings"

	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

// Store loads and saves the whole snapshot as one unit. The snapshot is read
// once at run start and written once at run end; keys absent from the saved
// snapshot are simply gone (no deleted-record detection).
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown snapshot driver: " + driver)
	}
}
