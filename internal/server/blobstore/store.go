// Package blobstore keeps raw file content addressed by random keys.
// Derivatives live next to their source under "<key>_<width>".
package blobstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Store reads and writes blobs. Get returns common.ErrorNotFound for an
// absent key. Put overwrites an existing blob.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// NewKey returns a fresh random blob key.
func NewKey() string {
	return uuid.NewString()
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}
