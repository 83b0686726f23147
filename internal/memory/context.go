// Package memory holds the conversation context: the most recently extracted
// semantic labels and values from answered queries. The context is advisory
// only; nothing in the pipeline depends on it for correctness.
package memory

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "context:"

// Context maps semantic labels (e.g. "last_total_amount") to their most
// recently seen values. Values are overwritten on each new answer. When a
// Badger path is configured the context survives restarts; otherwise it is
// purely in-process.
type Context struct {
	mu     sync.RWMutex
	values map[string]string
	db     *badger.DB // nil in memory-only mode
}

// NewContext opens a conversation context. An empty path selects
// memory-only mode.
func NewContext(path string) (*Context, error) {
	c := &Context{values: make(map[string]string)}
	if path == "" {
		return c, nil
	}

	opts := badger.DefaultOptions(expandPath(path)).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open context store: %w", err)
	}
	c.db = db

	if err := c.load(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Context) load() error {
	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), keyPrefix)
			err := item.Value(func(val []byte) error {
				var s string
				if err := json.Unmarshal(val, &s); err != nil {
					return nil // skip malformed entries
				}
				c.values[key] = s
				return nil
			})
			if err != nil {
				continue
			}
		}
		return nil
	})
}

// Set records a label/value pair, overwriting any previous value. Persistence
// is best-effort: a store failure never propagates.
func (c *Context) Set(label, value string) {
	c.mu.Lock()
	c.values[label] = value
	c.mu.Unlock()

	if c.db == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+label), data)
	})
	if err != nil {
		log.Printf("memory: failed to persist context %q: %v", label, err)
	}
}

// Get returns the last value recorded for a label.
func (c *Context) Get(label string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[label]
	return v, ok
}

// Snapshot returns a copy of all current label/value pairs.
func (c *Context) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Close closes the backing store, if any.
func (c *Context) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
