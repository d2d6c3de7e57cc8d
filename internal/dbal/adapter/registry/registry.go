// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package registry owns the service's single active adapter handle and the
machinery that switches it at runtime: a protocol-tag-to-constructor factory,
a lazily-constructed handle (ensureClient), a hot-swap operation
(SwitchAdapter) that never leaves the service without a working adapter on
failure, and a side-channel connectivity probe (TestConnection) that never
touches the active handle.

Go's sync.Mutex is not reentrant, so unlike the original service's recursive
lock, the locking here is structured so no exported method ever calls another
exported method while holding the lock: construction logic lives in an
unexported helper that never takes the lock itself, so EnsureClient can call
it with the lock held and SwitchAdapter/TestConnection can call it without.
*/
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/connurl"
	"github.com/meridiandb/dbal/internal/platform/apperr"
)

// Registry is the service-owned factory plus active adapter handle.
type Registry struct {
	factories map[string]adapter.Constructor

	// handleMu guards the active adapter and its config. EnsureClient holds
	// it across the cold-start constructor call so only one build runs;
	// SwitchAdapter runs its constructor first and installs the result
	// under a short lock.
	handleMu sync.Mutex
	active   adapter.Adapter
	cfg      adapter.Config
}

// New builds an empty registry. Register the 13 backend constructors, then
// call EnsureClient or SwitchAdapter to bring up the initial adapter.
func New(initial adapter.Config) *Registry {
	return &Registry{
		factories: make(map[string]adapter.Constructor),
		cfg:       initial,
	}
}

// Register binds a protocol tag (e.g. "postgres") to its constructor. Called
// once per backend package at startup wiring, before any request is served.
func (r *Registry) Register(tag string, constructor adapter.Constructor) {
	r.factories[tag] = constructor
}

// IsSupported reports whether tag names one of the 13 known adapter types.
func (r *Registry) IsSupported(tag string) bool {
	return connurl.IsSupported(tag)
}

// KnownAdapterTags returns the 13 canonical adapter tags.
func (r *Registry) KnownAdapterTags() []string {
	return connurl.KnownAdapterTags()
}

// ConfigSnapshot is a point-in-time copy of the active adapter's
// configuration, safe to read without racing a concurrent SwitchAdapter.
type ConfigSnapshot struct {
	Adapter     string
	DatabaseURL string
}

// Snapshot returns the current adapter name and URL.
func (r *Registry) Snapshot() ConfigSnapshot {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()
	return ConfigSnapshot{Adapter: r.cfg.Adapter, DatabaseURL: r.cfg.DatabaseURL}
}

// EnsureClient returns the active adapter, constructing it on first use if
// none has been built yet. Safe for concurrent callers — only one
// constructor call will ever run for a given cold start.
func (r *Registry) EnsureClient(ctx context.Context) (adapter.Adapter, error) {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()

	if r.active != nil {
		return r.active, nil
	}

	built, err := r.construct(ctx, r.cfg)
	if err != nil {
		return nil, err
	}

	r.active = built
	return r.active, nil
}

// SwitchAdapter constructs a new adapter for (name, databaseURL) and, only on
// success, closes the old one and installs the new one as active. On failure
// the previously active adapter (if any) is left untouched and the error is
// returned — callers must not assume the switch rolled back any observable
// state beyond the handle itself, since it never touched one to begin with.
func (r *Registry) SwitchAdapter(ctx context.Context, name, databaseURL string) error {
	candidateCfg := adapter.Config{Adapter: name, DatabaseURL: databaseURL}

	candidate, err := r.construct(ctx, candidateCfg)
	if err != nil {
		return err
	}

	r.handleMu.Lock()
	defer r.handleMu.Unlock()

	old := r.active
	r.active = candidate
	r.cfg = candidateCfg

	if old != nil {
		old.Close()
	}

	return nil
}

// TestConnection builds a transient adapter for (name, databaseURL), closes
// it immediately, and reports whether construction succeeded. It never reads
// or mutates the active handle, so it is safe to call concurrently with
// in-flight requests against a different adapter.
func (r *Registry) TestConnection(ctx context.Context, name, databaseURL string) error {
	candidate, err := r.construct(ctx, adapter.Config{Adapter: name, DatabaseURL: databaseURL})
	if err != nil {
		return err
	}
	return candidate.Close()
}

// construct runs the protocol-tag-to-constructor factory lookup and build.
// It never takes handleMu itself: EnsureClient calls it with the lock held,
// while SwitchAdapter and TestConnection call it with no lock held, so a
// switch or probe that blocks on network I/O does not hold up other callers.
func (r *Registry) construct(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	validated := connurl.Validate(cfg.DatabaseURL)
	if !validated.Valid {
		return nil, apperr.ValidationError(validated.ErrorMessage)
	}

	if cfg.Adapter != "" && connurl.NormalizeAdapterTag(cfg.Adapter) != validated.AdapterType {
		return nil, apperr.ValidationError(fmt.Sprintf(
			"adapter %q does not match protocol %q derived from databaseUrl", cfg.Adapter, validated.AdapterType))
	}

	constructor, ok := r.factories[validated.AdapterType]
	if !ok {
		return nil, apperr.CapabilityNotSupported(fmt.Sprintf("adapter %q is not registered", validated.AdapterType))
	}

	cfg.Adapter = validated.AdapterType
	cfg.DatabaseURL = validated.NormalizedURL

	built, err := constructor(ctx, cfg)
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	return built, nil
}
