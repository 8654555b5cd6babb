package dictionary

import (
	"context"
	"errors"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func writeDict(t *testing.T, store Store, lang, body string) {
	t.Helper()
	if err := os.WriteFile(store.Path(lang), []byte(body), 0o644); err != nil {
		t.Fatalf("write dictionary: %v", err)
	}
}

func TestCacheLoadsOnce(t *testing.T) {
	t.Parallel()

	store := Store{Dir: t.TempDir()}
	writeDict(t, store, "ta", taDict)
	cache := NewCache(store)

	const workers = 8
	results := make([]Dict, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := cache.Get(context.Background(), "ta")
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			results[i] = d
		}()
	}
	wg.Wait()

	first := reflect.ValueOf(results[0]).Pointer()
	for i, d := range results {
		if reflect.ValueOf(d).Pointer() != first {
			t.Fatalf("worker %d got a different map", i)
		}
	}
	if p, ok := results[0].Prob("அம்மா"); !ok || p != 0.8 {
		t.Fatalf("Prob = %v,%v", p, ok)
	}

	// Later edits are not seen until the cache is cleared.
	writeDict(t, store, "ta", "{\n  \"new\": 1\n}\n")
	d, err := cache.Get(context.Background(), "ta")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, ok := d.Prob("new"); ok {
		t.Fatal("cache should not reload")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("Len() = %d after Clear", cache.Len())
	}
	d, err = cache.Get(context.Background(), "ta")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, ok := d.Prob("new"); !ok {
		t.Fatal("expected reload after Clear")
	}
}

func TestCacheMissingDictionary(t *testing.T) {
	t.Parallel()

	cache := NewCache(Store{Dir: t.TempDir()})
	if _, err := cache.Get(context.Background(), "ta"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if cache.Len() != 0 {
		t.Fatal("failed loads must not be cached")
	}
}

func TestCacheCancelledCaller(t *testing.T) {
	t.Parallel()

	store := Store{Dir: t.TempDir()}
	writeDict(t, store, "ta", taDict)
	cache := NewCache(store)
	if _, err := cache.Get(context.Background(), "ta"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Cached entries are served without waiting on anything.
	if _, err := cache.Get(ctx, "ta"); err != nil {
		t.Fatalf("cached Get() error = %v", err)
	}
	if _, err := cache.Get(ctx, "hi"); err == nil {
		t.Fatal("expected an error for a cancelled load")
	}
}

// blockingLoad stands in for Store.Load: it signals started, then waits for
// release or for its context.
type blockingLoad struct {
	calls   atomic.Int64
	started chan struct{}
	release chan struct{}
	honour  bool
}

func newBlockingLoad(honourCtx bool) *blockingLoad {
	return &blockingLoad{started: make(chan struct{}, 4), release: make(chan struct{}), honour: honourCtx}
}

func (b *blockingLoad) load(ctx context.Context, lang string) (Dict, Stats, error) {
	b.calls.Add(1)
	b.started <- struct{}{}
	if b.honour {
		select {
		case <-ctx.Done():
			return nil, Stats{}, ctx.Err()
		case <-b.release:
		}
	} else {
		<-b.release
	}
	return Dict{"அம்மா": 0.8}, Stats{Entries: 1}, nil
}

func waitStarted(t *testing.T, b *blockingLoad) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(5 * time.Second):
		t.Fatal("load never started")
	}
}

func TestCacheClearCancelsLoadInFlight(t *testing.T) {
	t.Parallel()

	b := newBlockingLoad(true)
	cache := NewCache(Store{Dir: t.TempDir()})
	cache.load = b.load

	errc := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background(), "ta")
		errc <- err
	}()
	waitStarted(t, b)
	cache.Clear()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Get() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Clear did not stop the load")
	}
	if cache.Len() != 0 {
		t.Fatalf("Len() = %d after Clear", cache.Len())
	}

	// The cache is usable again after Clear.
	close(b.release)
	if _, err := cache.Get(context.Background(), "ta"); err != nil {
		t.Fatalf("Get() after Clear error = %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", cache.Len())
	}
}

func TestCacheForgetDuringLoadIsNotCached(t *testing.T) {
	t.Parallel()

	b := newBlockingLoad(false)
	cache := NewCache(Store{Dir: t.TempDir()})
	cache.load = b.load

	done := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background(), "ta")
		done <- err
	}()
	waitStarted(t, b)
	cache.Forget("ta")
	close(b.release)

	if err := <-done; err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cache.Len() != 0 {
		t.Fatal("a load that overlapped Forget must not be cached")
	}

	// The next Get loads afresh and is cached.
	if _, err := cache.Get(context.Background(), "ta"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if b.calls.Load() != 2 || cache.Len() != 1 {
		t.Fatalf("calls = %d, Len() = %d", b.calls.Load(), cache.Len())
	}
}
