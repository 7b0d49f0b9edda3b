// Package cache backs the external leaderboard/status/usercount
// collaborators (spec.md §6) with an embedded badger KV store rather than a
// real external cache tier.
package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/chordwave/lobby/internal/logging"
)

// Cache implements store.Leaderboards and store.Usercount directly, and
// store.Status through the StatusCache adapter. Leaderboard and status
// entries live in one badger.DB; the usercount is an in-memory counter.
type Cache struct {
	db *badger.DB

	mu    sync.Mutex
	count int64
}

// Open opens (or creates) a badger database at dir. Pass "" for an
// in-memory-only instance, used by tests.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func leaderboardKey(mode uint8, userID int32) []byte {
	return []byte(fmt.Sprintf("lb:%d:%d", mode, userID))
}

func scoreRankKey(mode uint8, beatmapMD5 string, userID int32) []byte {
	return []byte(fmt.Sprintf("sr:%d:%s:%d", mode, beatmapMD5, userID))
}

func statusKey(userID int32) []byte {
	return []byte(fmt.Sprintf("status:%d", userID))
}

// Update stores userID's ranked total under mode, used to derive rank order.
func (c *Cache) Update(ctx context.Context, mode uint8, userID int32, totalScore int64) error {
	return c.db.Update(func(txn *badger.Txn) error {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(totalScore))
		return txn.Set(leaderboardKey(mode, userID), buf[:])
	})
}

func (c *Cache) Remove(ctx context.Context, mode uint8, userID int32) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(leaderboardKey(mode, userID))
	})
}

// GlobalRank scans every entry for mode and returns userID's 1-based rank by
// descending total score. Fine for the scale this engine targets; a real
// deployment would keep a sorted secondary index instead.
func (c *Cache) GlobalRank(ctx context.Context, mode uint8, userID int32) (int32, error) {
	prefix := []byte(fmt.Sprintf("lb:%d:", mode))
	type entry struct {
		id    int32
		score int64
	}
	var entries []entry

	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			parts := strings.Split(key, ":")
			if len(parts) != 3 {
				continue
			}
			var id int64
			fmt.Sscanf(parts[2], "%d", &id)
			err := it.Item().Value(func(val []byte) error {
				score := int64(binary.BigEndian.Uint64(val))
				entries = append(entries, entry{id: int32(id), score: score})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].score > entries[j].score })
	for i, e := range entries {
		if e.id == userID {
			return int32(i + 1), nil
		}
	}
	return 0, nil
}

func (c *Cache) ScoreRank(ctx context.Context, mode uint8, beatmapMD5 string, userID int32) (int32, error) {
	var rank int32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(scoreRankKey(mode, beatmapMD5, userID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rank = int32(binary.BigEndian.Uint32(val))
			return nil
		})
	})
	return rank, err
}

// StatusUpdate updates the external status-page cache entry for userID.
func (c *Cache) StatusUpdate(ctx context.Context, userID int32, action uint8, text string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(statusKey(userID), []byte(fmt.Sprintf("%d|%s", action, text)))
	})
}

func (c *Cache) StatusDelete(ctx context.Context, userID int32) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(statusKey(userID))
	})
}

// Usercount tracks the externally-visible concurrent player count.
func (c *Cache) Increment(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.count, nil
}

func (c *Cache) Decrement(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count > 0 {
		c.count--
	}
	return c.count, nil
}

// RunGC runs badger's value-log garbage collection once. Nothing in this
// repository schedules it; the ping sweep's cron job does not call it.
func (c *Cache) RunGC() {
	err := c.db.RunValueLogGC(0.5)
	if err != nil && err != badger.ErrNoRewrite {
		logging.Warnf("cache: value log gc: %v", err)
	}
}
