// Package kv defines the string-keyed blob store every POS collection is
// persisted in. Each collection is stored whole under one key.
package kv

import (
	"context"

	"github.com/go-faster/errors"
)

// Keys used by the POS collections.
const (
	KeyMenu  = "restaurantMenu"
	KeySales = "restaurantSales"
	KeyCart  = "restaurantCart"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// Store is a durable string-keyed store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}
