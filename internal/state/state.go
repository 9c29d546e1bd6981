// Package state reads and writes the run state kept in the key-value store:
// the last handled slot, the article watermark and the settings overrides.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"news_bot/internal/config"
	"news_bot/internal/storage"
)

// Keys used in the key-value store.
const (
	KeyLastSentTarget  = "last_sent_target"
	KeyLastCheckedTime = "last_checked_time"
	KeyConfig          = "config"
	overridePrefix     = "config."
)

// State is the persisted cross-run state.
type State struct {
	LastSentTarget  string
	LastCheckedTime time.Time
	HasWatermark    bool
}

// Store wraps a storage.Storage with typed accessors.
type Store struct {
	kv  storage.Storage
	log *slog.Logger
}

// New creates a Store.
func New(kv storage.Storage, log *slog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// Load reads both state keys. A malformed watermark is logged and treated as
// missing.
func (s *Store) Load(ctx context.Context) (State, error) {
	var st State

	target, _, err := s.kv.Get(ctx, KeyLastSentTarget)
	if err != nil {
		return State{}, fmt.Errorf("load last sent target: %w", err)
	}
	st.LastSentTarget = target

	raw, ok, err := s.kv.Get(ctx, KeyLastCheckedTime)
	if err != nil {
		return State{}, fmt.Errorf("load watermark: %w", err)
	}
	if ok {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			s.log.Warn("ignoring malformed watermark", "value", raw, "error", err)
		} else {
			st.LastCheckedTime = t
			st.HasWatermark = true
		}
	}
	return st, nil
}

// SaveSlot records slotID as the last slot a notification was sent for.
func (s *Store) SaveSlot(ctx context.Context, slotID string) error {
	if err := s.kv.Put(ctx, KeyLastSentTarget, slotID); err != nil {
		return fmt.Errorf("save slot: %w", err)
	}
	return nil
}

// AdvanceWatermark stores next when it is later than current. It reports
// whether a write happened.
func (s *Store) AdvanceWatermark(ctx context.Context, current, next time.Time) (bool, error) {
	if !next.After(current) {
		return false, nil
	}
	if err := s.kv.Put(ctx, KeyLastCheckedTime, next.UTC().Format(time.RFC3339Nano)); err != nil {
		return false, fmt.Errorf("save watermark: %w", err)
	}
	return true, nil
}

// Settings resolves the run settings: consolidated record, then discrete
// overrides, then the static layer. Malformed stored values are logged and
// skipped.
func (s *Store) Settings(ctx context.Context, static config.Partial) config.Settings {
	var record, overrides config.Partial

	raw, ok, err := s.kv.Get(ctx, KeyConfig)
	switch {
	case err != nil:
		s.log.Warn("read settings record", "error", err)
	case ok && strings.TrimSpace(raw) != "":
		record, err = config.DecodeRecord(raw)
		if err != nil {
			s.log.Warn("ignoring malformed settings record", "error", err)
			record = config.Partial{}
		}
	}

	entries, err := s.kv.List(ctx, overridePrefix)
	if err != nil {
		s.log.Warn("read settings overrides", "error", err)
	}
	for key, value := range entries {
		field := strings.TrimPrefix(key, overridePrefix)
		if err := config.SetField(&overrides, field, value); err != nil {
			s.log.Warn("ignoring malformed settings override", "key", key, "error", err)
		}
	}

	return config.Resolve(record, overrides, static)
}

// SetOverride validates and stores a discrete override for field.
func (s *Store) SetOverride(ctx context.Context, field, value string) error {
	var probe config.Partial
	if err := config.SetField(&probe, field, value); err != nil {
		return err
	}
	if err := s.kv.Put(ctx, overridePrefix+field, value); err != nil {
		return fmt.Errorf("save override: %w", err)
	}
	return nil
}

// ClearOverride removes the discrete override for field.
func (s *Store) ClearOverride(ctx context.Context, field string) error {
	if !slices.Contains(config.Fields, field) {
		return fmt.Errorf("unknown setting %q", field)
	}
	if err := s.kv.Delete(ctx, overridePrefix+field); err != nil {
		return fmt.Errorf("clear override: %w", err)
	}
	return nil
}
