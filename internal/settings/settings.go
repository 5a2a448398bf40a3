package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const (
	// KeyLastSync holds the message of the most recent sync attempt.
	KeyLastSync = "lastsync"
	// KeyUseAlternateSource selects the alternate forecast endpoint.
	KeyUseAlternateSource = "UseAlternateSource"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("setting not found")

// Store is a process-wide key/value settings store. Writes are
// last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// LastSync returns the last sync message, or "" when none was recorded.
func LastSync(ctx context.Context, s Store) (string, error) {
	v, err := s.Get(ctx, KeyLastSync)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

func SetLastSync(ctx context.Context, s Store, message string) error {
	return s.Set(ctx, KeyLastSync, message)
}

// UseAlternateSource defaults to false when unset.
func UseAlternateSource(ctx context.Context, s Store) (bool, error) {
	v, err := s.Get(ctx, KeyUseAlternateSource)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("setting %s: %w", KeyUseAlternateSource, err)
	}
	return b, nil
}

func SetUseAlternateSource(ctx context.Context, s Store, enabled bool) error {
	return s.Set(ctx, KeyUseAlternateSource, strconv.FormatBool(enabled))
}
