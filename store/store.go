// Package store persists tag-to-action mappings. Each operation is one
// Badger transaction, so concurrent callers (the dispatch path and the
// web API) always observe whole records and writes are durable before
// the call returns.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Get for an unmapped tag. It is an expected
// condition, not a failure: the caller surfaces it as "unknown tag".
var ErrNotFound = errors.New("mapping not found")

const keyPrefix = "mapping:"

// Mapping binds a tag to an action. Tags are unique; Put overwrites.
type Mapping struct {
	Tag         string `json:"tag"`
	Action      Action `json:"action"`
	Description string `json:"description,omitempty"`
}

// record is the persisted value shape. The tag lives in the key.
type record struct {
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// Config holds mapping store settings.
type Config struct {
	Path string `yaml:"path"` // Badger directory
}

// Store is a Badger-backed mapping store.
type Store struct {
	db *badger.DB

	mu       sync.Mutex
	onChange func()
}

// Open opens (creating if needed) the store at the configured path.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open mapping store %s: %w", cfg.Path, err)
	}
	return &Store{db: db}, nil
}

// OnChange registers a hook fired after every successful Put, Delete
// or Import. Used to drive mappings_updated notifications.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Get returns the mapping for tag, or ErrNotFound.
func (s *Store) Get(tag string) (Mapping, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + tag))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get mapping %s: %w", tag, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return Mapping{}, err
	}
	return Mapping{
		Tag:         tag,
		Action:      DecodeAction(rec.Action),
		Description: rec.Description,
	}, nil
}

// List returns all mappings ordered by tag.
func (s *Store) List() ([]Mapping, error) {
	var out []Mapping
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			tag := strings.TrimPrefix(string(item.Key()), keyPrefix)
			var rec record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode mapping %s: %w", tag, err)
			}
			out = append(out, Mapping{
				Tag:         tag,
				Action:      DecodeAction(rec.Action),
				Description: rec.Description,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put inserts or overwrites the mapping for m.Tag.
func (s *Store) Put(m Mapping) error {
	if m.Tag == "" {
		return errors.New("mapping tag must not be empty")
	}
	data, err := json.Marshal(record{
		Action:      m.Action.Encode(),
		Description: m.Description,
	})
	if err != nil {
		return fmt.Errorf("encode mapping %s: %w", m.Tag, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+m.Tag), data)
	})
	if err != nil {
		return fmt.Errorf("put mapping %s: %w", m.Tag, err)
	}
	s.notify()
	return nil
}

// Delete removes the mapping for tag, reporting whether it existed.
func (s *Store) Delete(tag string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + tag)
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("delete mapping %s: %w", tag, err)
	}
	if existed {
		s.notify()
	}
	return existed, nil
}

// Export returns every mapping, suitable for re-Import elsewhere.
func (s *Store) Export() ([]Mapping, error) {
	return s.List()
}

// Import upserts all given mappings in one transaction and fires a
// single change notification.
func (s *Store) Import(ms []Mapping) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, m := range ms {
			if m.Tag == "" {
				return errors.New("mapping tag must not be empty")
			}
			data, err := json.Marshal(record{
				Action:      m.Action.Encode(),
				Description: m.Description,
			})
			if err != nil {
				return fmt.Errorf("encode mapping %s: %w", m.Tag, err)
			}
			if err := txn.Set([]byte(keyPrefix+m.Tag), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("import mappings: %w", err)
	}
	if len(ms) > 0 {
		s.notify()
	}
	return nil
}

// Count returns the number of stored mappings.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
