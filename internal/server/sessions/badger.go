// Package sessions maps opaque session tokens to user ids in BadgerDB.
// Expiry is enforced by Badger's per-entry TTL.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

const issueAttempts = 5

var errTokenTaken = errors.New("session token collision")

// Store is a Badger-backed session store. A session lives for a fixed TTL
// from creation and is not refreshed by use.
type Store struct {
	db  *badger.DB
	ttl time.Duration

	// newToken is replaced in tests to force collisions.
	newToken func() (string, error)
}

// Open opens the session database at dir. An empty dir keeps the data in
// memory only.
func Open(dir string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	return &Store{
		db:  db,
		ttl: ttl,
		newToken: func() (string, error) {
			return common.MakeRandHexString(common.SessionTokenBytes)
		},
	}, nil
}

func key(token string) []byte {
	return []byte(common.SessionKeyPrefix + token)
}

// Issue creates a session for userID and returns its token. A freshly drawn
// token that already exists in the store is discarded and redrawn.
func (s *Store) Issue(ctx context.Context, userID models.ID) (string, error) {
	for i := 0; i < issueAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		token, err := s.newToken()
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key(token))
			if err == nil {
				return errTokenTaken
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			e := badger.NewEntry(key(token), []byte(userID.String())).WithTTL(s.ttl)
			return txn.SetEntry(e)
		})
		if errors.Is(err, errTokenTaken) || errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("store session: %w", err)
		}
		return token, nil
	}
	return "", fmt.Errorf("store session: %w", errTokenTaken)
}

// Resolve returns the user bound to token. ok is false for an unknown or
// expired token; that is not an error.
func (s *Store) Resolve(ctx context.Context, token string) (userID models.ID, ok bool, err error) {
	if token == "" {
		return "", false, nil
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = models.ID(string(val))
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve session: %w", err)
	}
	return userID, true, nil
}

// Revoke deletes the session. Revoking an unknown token succeeds.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(token))
	})
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Alive reports whether the store can serve requests.
func (s *Store) Alive() bool {
	return !s.db.IsClosed()
}

func (s *Store) Close() error {
	return s.db.Close()
}
