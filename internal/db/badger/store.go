// Package badger is an embedded db.Store for single-host runs without a
// Redis server.
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// maxTxnRetries bounds optimistic-transaction retries for read-modify-write ops.
const maxTxnRetries = 10

// Store implements db.Store on top of BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a database directory. An empty dir opens an
// in-memory database.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &zapAdapter{l: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb}, nil
}

// OpenInMemory opens a throwaway in-memory database.
func OpenInMemory() (*Store, error) {
	return Open("", nil)
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: errors.New("database closed")}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns immediately: an opened embedded database is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value, dropping any previous TTL.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetMulti writes all items through a write batch.
func (s *Store) SetMulti(_ context.Context, items []db.KVItem) error {
	if len(items) == 0 {
		return nil
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, item := range items {
		if err := wb.Set([]byte(item.Key), item.Value); err != nil {
			return &db.Error{Op: db.OpSet, Err: fmt.Errorf("key %s: %w", item.Key, err)}
		}
	}
	if err := wb.Flush(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrBy adds val to the integer stored at key, treating a missing key as 0.
// The counter keeps its TTL.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	err := s.update(func(txn *badger.Txn) error {
		cur, expiresAt, err := readInt(txn, key)
		if err != nil {
			return err
		}
		e := badger.NewEntry([]byte(key), []byte(strconv.FormatInt(cur+val, 10)))
		if expiresAt > 0 {
			e.ExpiresAt = expiresAt
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return nil
}

// Expire rewrites the key with a TTL. With nx=true keys that already expire
// are left alone. Missing keys are ignored, as in Redis.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	err := s.update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if nx && item.ExpiresAt() > 0 {
			return nil
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(key), val).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return true, nil
}

// Scan returns keys matching a glob pattern. The literal part before the
// first wildcard is used as an iteration prefix.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("%w: %q", db.ErrUnsupportedPattern, pattern)}
	}
	prefix := pattern
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		prefix = pattern[:i]
	}

	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			if ok, _ := path.Match(pattern, key); ok || matchAcrossSlashes(pattern, key) {
				keys = append(keys, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

// update retries on optimistic-transaction conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func readInt(txn *badger.Txn, key string) (int64, uint64, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("value is not an integer: %w", err)
	}
	return n, item.ExpiresAt(), nil
}

// matchAcrossSlashes handles the common "prefix*" pattern for keys that
// contain '/', which path.Match would refuse to cross.
func matchAcrossSlashes(pattern, key string) bool {
	if strings.Count(pattern, "*") == 1 && strings.HasSuffix(pattern, "*") && !strings.ContainsAny(pattern, `?[\`) {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

type zapAdapter struct {
	l *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, args ...any)   { a.l.Errorf(strings.TrimSpace(msg), args...) }
func (a *zapAdapter) Warningf(msg string, args ...any) { a.l.Warnf(strings.TrimSpace(msg), args...) }
func (a *zapAdapter) Infof(msg string, args ...any)    { a.l.Debugf(strings.TrimSpace(msg), args...) }
func (a *zapAdapter) Debugf(msg string, args ...any)   { a.l.Debugf(strings.TrimSpace(msg), args...) }
