package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionBucket = []byte("session")

// Keys inside the session bucket. They mirror the browser-storage layout the
// dashboard used, so a record stays inspectable with plain bbolt tooling.
var (
	keyAccessToken  = []byte("accessToken")
	keyRefreshToken = []byte("refreshToken")
	keyTokenType    = []byte("tokenType")
	keyTokenExpiry  = []byte("tokenExpiry")
	keyUser         = []byte("user")
)

// BoltStore persists the session record in a bbolt database. All token
// fields are written inside a single update transaction so readers never
// observe a half-written session.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) the session database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: failed to create session directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("session: failed to open session database: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load reads the current record. Missing keys yield zero values and a
// non-numeric expiry is read as zero, which callers treat as expired.
func (s *BoltStore) Load() (Record, error) {
	var r Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		r.AccessToken = string(b.Get(keyAccessToken))
		r.RefreshToken = string(b.Get(keyRefreshToken))
		r.TokenType = string(b.Get(keyTokenType))
		if raw := b.Get(keyTokenExpiry); len(raw) > 0 {
			if millis, errParse := strconv.ParseInt(string(raw), 10, 64); errParse == nil {
				r.ExpiresAt = millis
			}
		}
		if user := b.Get(keyUser); len(user) > 0 {
			r.User = append([]byte(nil), user...)
		}
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("session: failed to load record: %w", err)
	}
	return r, nil
}

// Save replaces the stored record in one transaction.
func (s *BoltStore) Save(r Record) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, errBucket := tx.CreateBucketIfNotExists(sessionBucket)
		if errBucket != nil {
			return errBucket
		}
		if errPut := b.Put(keyAccessToken, []byte(r.AccessToken)); errPut != nil {
			return errPut
		}
		if errPut := b.Put(keyRefreshToken, []byte(r.RefreshToken)); errPut != nil {
			return errPut
		}
		if errPut := b.Put(keyTokenType, []byte(r.Type())); errPut != nil {
			return errPut
		}
		if errPut := b.Put(keyTokenExpiry, []byte(strconv.FormatInt(r.ExpiresAt, 10))); errPut != nil {
			return errPut
		}
		if len(r.User) > 0 {
			return b.Put(keyUser, r.User)
		}
		return b.Delete(keyUser)
	})
	if err != nil {
		return fmt.Errorf("session: failed to save record: %w", err)
	}
	return nil
}

// Clear removes the session bucket. Clearing an empty store is a no-op.
func (s *BoltStore) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(sessionBucket) == nil {
			return nil
		}
		return tx.DeleteBucket(sessionBucket)
	})
	if err != nil {
		return fmt.Errorf("session: failed to clear record: %w", err)
	}
	return nil
}
