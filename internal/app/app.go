// Package app wires together configuration, the record store, and other
// dependencies into a single Deps struct that commands receive at runtime.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/derickschaefer/yojitsu/internal/config"
	"github.com/derickschaefer/yojitsu/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// The store is opened lazily so commands that never touch it (chart
// rendering from files, layout scripts) do not take the bbolt file lock.
type Deps struct {
	Config   *config.Config
	Location *time.Location
	Store    *store.Store
}

// New builds a Deps from resolved config.
func New(cfg *config.Config) (*Deps, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Deps{Config: cfg, Location: loc}, nil
}

// RequireStore opens the record store on first use and returns it.
func (d *Deps) RequireStore() (*store.Store, error) {
	if d.Store != nil {
		return d.Store, nil
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", d.Config.DBPath, err)
	}
	slog.Debug("store opened", "path", d.Config.DBPath)
	d.Store = s
	return s, nil
}

// Close releases the store if it was opened.
func (d *Deps) Close() error {
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store = nil
	return err
}
