// Package prefs persists the user's list preferences in a Badger key-value
// store: the sort option, the filter set and whether to ask for a rating
// when a series is completed.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

const (
	keySort             = "pref:sort"
	keyFilters          = "pref:filters"
	keyRateOnCompletion = "pref:rate_on_completion"
)

// Store is a Badger-backed preference store.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the preference database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// OpenInMemory opens a store that is discarded on Close.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SortOption returns the stored sort option, SortDefault when unset or
// no longer recognized.
func (s *Store) SortOption(ctx context.Context) (domain.SortOption, error) {
	var opt domain.SortOption
	found, err := s.get(ctx, keySort, &opt)
	if err != nil {
		return domain.SortDefault, err
	}
	if !found || !opt.Valid() {
		return domain.SortDefault, nil
	}
	return opt, nil
}

// SetSortOption stores opt.
func (s *Store) SetSortOption(ctx context.Context, opt domain.SortOption) error {
	if !opt.Valid() {
		return fmt.Errorf("invalid sort option %q", opt)
	}
	return s.set(ctx, keySort, opt)
}

// FilterOptions returns the stored filter set, normalized to one entry per
// category. Every category is included when nothing is stored.
func (s *Store) FilterOptions(ctx context.Context) ([]domain.FilterOption, error) {
	var opts []domain.FilterOption
	if _, err := s.get(ctx, keyFilters, &opts); err != nil {
		return domain.DefaultFilterOptions(), err
	}
	return domain.NormalizeFilterOptions(opts), nil
}

// SetFilterOptions stores opts.
func (s *Store) SetFilterOptions(ctx context.Context, opts []domain.FilterOption) error {
	return s.set(ctx, keyFilters, domain.NormalizeFilterOptions(opts))
}

// RateOnCompletion reports whether completing a series prompts for a
// rating. It defaults to true.
func (s *Store) RateOnCompletion(ctx context.Context) (bool, error) {
	enabled := true
	if _, err := s.get(ctx, keyRateOnCompletion, &enabled); err != nil {
		return true, err
	}
	return enabled, nil
}

// SetRateOnCompletion stores the rating prompt preference.
func (s *Store) SetRateOnCompletion(ctx context.Context, enabled bool) error {
	return s.set(ctx, keyRateOnCompletion, enabled)
}

func (s *Store) get(ctx context.Context, key string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("discarding unreadable preference", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	s.logger.Debug("preference saved", "key", key)
	return nil
}
