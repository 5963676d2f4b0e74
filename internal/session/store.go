// Package session keeps per-process state objects: battles in flight and
// finished battle records.
package session

import (
	"context"
	"errors"
)

// ErrExists is returned by PutIfAbsent when the key is taken.
var ErrExists = errors.New("session: key already exists")

// Store is a keyed collection of state objects.
type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	// PutIfAbsent stores v only when id is free, otherwise it returns ErrExists.
	PutIfAbsent(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) error
	NewID() string
}
