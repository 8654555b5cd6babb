// Package inference runs the transliteration pipeline over a lazily loaded
// model and a per-engine dictionary cache.
package inference

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/samcharles93/indicxlit/internal/dictionary"
	"github.com/samcharles93/indicxlit/internal/logger"
)

var supportedLanguages = []string{
	"as", "bn", "brx", "gom", "gu", "hi", "kn", "ks", "mai", "ml",
	"mni", "mr", "ne", "or", "pa", "sa", "sd", "si", "ta", "te", "ur",
}

// SupportedLanguages returns the target language codes the released model
// was trained on.
func SupportedLanguages() []string {
	return slices.Clone(supportedLanguages)
}

// Engine owns a model session. It loads on first use, is safe for
// concurrent use, and may be reused after Dispose.
type Engine struct {
	opts       Options
	log        logger.Logger
	store      dictionary.Store
	cache      *dictionary.Cache
	downloader *dictionary.Downloader

	mu  sync.RWMutex
	res *resources
	// gen counts Dispose calls; a load started before one is discarded.
	gen   uint64
	group singleflight.Group
}

func New(opts Options) (*Engine, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, newInvalidInput(err.Error())
	}
	store := dictionary.Store{Dir: opts.DictDir}
	return &Engine{
		opts:       opts,
		log:        opts.Logger,
		store:      store,
		cache:      dictionary.NewCache(store),
		downloader: dictionary.NewDownloader(opts.DictURL),
	}, nil
}

// Options returns the engine's effective configuration.
func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) SupportedLanguages() []string {
	return SupportedLanguages()
}

// Ready reports whether the model is loaded.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.res != nil
}

// Initialize loads the vocabulary and model. Concurrent callers share one
// load; later calls return immediately. A load overtaken by Dispose is
// released and reported as ErrDisposed.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.RLock()
	ready, gen := e.res != nil, e.gen
	e.mu.RUnlock()
	if ready {
		return nil
	}
	// The load outlives any single caller.
	loadCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan("init:"+strconv.FormatUint(gen, 10), func() (any, error) {
		e.mu.RLock()
		ready := e.res != nil
		e.mu.RUnlock()
		if ready {
			return nil, nil
		}
		res, err := e.load(loadCtx)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		if e.gen != gen {
			e.mu.Unlock()
			if err := res.close(); err != nil {
				e.log.Warn("release model loaded during dispose", "error", err)
			}
			return nil, ErrDisposed
		}
		e.res = res
		e.mu.Unlock()
		return nil, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		return r.Err
	}
}

// acquire returns the current resources with a hold that Dispose waits on.
func (e *Engine) acquire(ctx context.Context) (*resources, func(), error) {
	for {
		e.mu.RLock()
		res := e.res
		if res != nil {
			res.active.Add(1)
		}
		e.mu.RUnlock()
		if res != nil {
			return res, res.active.Done, nil
		}
		if err := e.Initialize(ctx); err != nil {
			return nil, nil, err
		}
	}
}

// Dispose cancels in-flight requests, waits for them to return, releases the
// model and drops cached dictionaries. The next request loads again.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	res := e.res
	e.res = nil
	e.gen++
	e.mu.Unlock()

	e.cache.Clear()
	if res == nil {
		return nil
	}
	err := res.close()
	e.log.Info("engine disposed")
	return err
}

// HasDictionary reports whether the dictionary for lang is on disk.
func (e *Engine) HasDictionary(lang string) bool {
	return e.store.Has(lang)
}

// DownloadDictionary fetches the dictionary for lang into the dictionary
// directory. Concurrent downloads of the same language are shared, and only
// the caller that started one receives progress.
func (e *Engine) DownloadDictionary(ctx context.Context, lang string, progress dictionary.Progress) error {
	if !slices.Contains(supportedLanguages, lang) {
		return &UnsupportedLanguageError{Lang: lang, Valid: SupportedLanguages()}
	}
	dctx := logger.WithContext(context.WithoutCancel(ctx), e.log.With("lang", lang))
	ch := e.group.DoChan("download:"+lang, func() (any, error) {
		if err := e.downloader.Download(dctx, e.store, lang, progress); err != nil {
			return nil, err
		}
		e.cache.Forget(lang)
		return nil, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		return r.Err
	}
}

// dictionary returns the cached dictionary for lang, downloading it first
// when it is not on disk.
func (e *Engine) dictionary(ctx context.Context, lang string) (dictionary.Dict, error) {
	if !e.store.Has(lang) {
		e.log.Info("dictionary not found locally, downloading", "lang", lang, "dir", e.store.Dir)
		if err := e.DownloadDictionary(ctx, lang, nil); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, wrap(ErrDictionaryMissing, "download dictionary for "+lang, err)
		}
	}
	d, err := e.cache.Get(logger.WithContext(ctx, e.log), lang)
	if err != nil {
		if errors.Is(err, dictionary.ErrNotFound) {
			return nil, wrap(ErrDictionaryMissing, "load dictionary for "+lang, err)
		}
		return nil, err
	}
	return d, nil
}
