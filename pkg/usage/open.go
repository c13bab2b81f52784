package usage

import (
	"fmt"
	"os"
	"path/filepath"

	"mercator-hq/switchboard/pkg/config"
)

// Open creates the store selected by cfg.Backend.
func Open(cfg config.UsageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.MaxRecords), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, NewStorageError("sqlite", "mkdir", err)
			}
		}
		sqliteCfg := DefaultSQLiteConfig()
		sqliteCfg.Driver = cfg.Driver
		sqliteCfg.Path = cfg.Path
		return NewSQLiteStore(sqliteCfg)
	default:
		return nil, fmt.Errorf("unknown usage backend %q (valid: memory, sqlite)", cfg.Backend)
	}
}

// NewRecorderFromConfig opens the store and starts a recorder over it.
func NewRecorderFromConfig(cfg config.UsageConfig) (*Recorder, error) {
	store, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return NewRecorder(store, RecorderConfig{BufferSize: cfg.BufferSize}), nil
}
