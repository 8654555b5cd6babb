package dictionary

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/samcharles93/indicxlit/internal/logger"
)

// Cache loads each language's dictionary from a Store at most once and keeps
// it until Clear. Concurrent first requests for a language share one load.
//
// Clear cancels loads in flight. A load that overlaps Clear or Forget for its
// language still answers its callers but is not cached.
type Cache struct {
	store Store
	load  func(ctx context.Context, lang string) (Dict, Stats, error)

	mu     sync.RWMutex
	dicts  map[string]Dict
	epoch  uint64
	gens   map[string]uint64
	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group
}

func NewCache(store Store) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		store:  store,
		load:   store.Load,
		dicts:  make(map[string]Dict),
		gens:   make(map[string]uint64),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Cache) Store() Store {
	return c.store
}

// Get returns the cached dictionary for lang, loading it on first use.
func (c *Cache) Get(ctx context.Context, lang string) (Dict, error) {
	c.mu.RLock()
	d, ok := c.dicts[lang]
	epoch, gen, base := c.epoch, c.gens[lang], c.ctx
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	// The load is shared, so it runs under the cache's context rather than
	// the first caller's.
	loadCtx := logger.WithContext(base, logger.FromContext(ctx))
	key := lang + "@" + strconv.FormatUint(epoch, 10) + "." + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.RLock()
		d, ok := c.dicts[lang]
		c.mu.RUnlock()
		if ok {
			return d, nil
		}

		start := time.Now()
		d, st, err := c.load(loadCtx, lang)
		if err != nil {
			return nil, err
		}
		logger.FromContext(loadCtx).Info("dictionary loaded",
			"lang", lang, "entries", st.Entries, "skipped", st.Skipped, "elapsed", time.Since(start))

		c.mu.Lock()
		if c.epoch == epoch && c.gens[lang] == gen {
			c.dicts[lang] = d
		}
		c.mu.Unlock()
		return d, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Dict), nil
	}
}

// Clear drops every cached dictionary and cancels loads in flight.
func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.dicts)
	clear(c.gens)
	c.epoch++
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.mu.Unlock()
}

// Forget drops the cached dictionary for lang. A load of lang already in
// flight is not cached.
func (c *Cache) Forget(lang string) {
	c.mu.Lock()
	delete(c.dicts, lang)
	c.gens[lang]++
	c.mu.Unlock()
}

// Len is the number of cached dictionaries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.dicts)
}
