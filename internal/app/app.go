// Package app wires together configuration, the page client, and the local
// store into a single Deps struct that commands receive at runtime.
package app

import (
	"fmt"

	"github.com/KaiErikNiermann/roomnl-stats/internal/config"
	"github.com/KaiErikNiermann/roomnl-stats/internal/roomnl"
	"github.com/KaiErikNiermann/roomnl-stats/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// The store is opened lazily: commands that never touch the database should
// not create one.
type Deps struct {
	Config *config.Config
	Client *roomnl.Client

	st *store.Store
}

// New builds a Deps from resolved config.
func New(cfg *config.Config) *Deps {
	client := roomnl.NewClient(
		cfg.BaseURL,
		cfg.Timeout,
		cfg.Rate,
		cfg.Debug,
	)
	return &Deps{
		Config: cfg,
		Client: client,
	}
}

// Language returns the configured page language.
func (d *Deps) Language() roomnl.Language {
	if d.Config.Language == "dutch" {
		return roomnl.LangDutch
	}
	return roomnl.LangEnglish
}

// RequireStore opens the local store on first use.
func (d *Deps) RequireStore() (*store.Store, error) {
	if d.st != nil {
		return d.st, nil
	}
	if d.Config.DBPath == "" {
		return nil, fmt.Errorf("no database path configured")
	}
	st, err := store.Open(d.Config.DBPath)
	if err != nil {
		return nil, err
	}
	d.st = st
	return st, nil
}

// Close releases the store if it was opened.
func (d *Deps) Close() error {
	if d.st == nil {
		return nil
	}
	err := d.st.Close()
	d.st = nil
	return err
}
