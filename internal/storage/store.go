// Package storage is the key-value adapter every record of the application lives behind.
// Values are JSON documents addressed by short well-known keys.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Well-known keys.
const (
	KeyCurrentPlan = "current-plan"
	KeySettings    = "settings"
	KeyRecipes     = "recipes"
	KeyFavorites   = "favorites"
	KeyPrepPlans   = "prep-plans"
)

// Store is a JSON key-value store.
type Store interface {
	// Get decodes the value stored under key into dest and reports whether it existed.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value any) error
}

// GetOr returns the value stored under key, or def when nothing is stored.
func GetOr[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	var v T
	found, err := s.Get(ctx, key, &v)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value for %q: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value for %q: %w", key, err)
	}
	return nil
}
