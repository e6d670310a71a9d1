// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"runtime"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/devblok/korutex/gfx"
	"github.com/devblok/korutex/resolve"
	"github.com/devblok/korutex/utility/blocking"
)

// package errors
var (
	ErrClosed = errors.New("texture: store closed")
	ErrCreate = errors.New("texture: create failed")
)

// Options configure a Store.
type Options struct {
	// Workers is the number of decoding goroutines, one per CPU when zero.
	Workers int

	// MaxDimension caps texture size, DefaultMaxDimension when zero.
	// Negative disables downsampling.
	MaxDimension int

	// Scaler is the downsampling kernel, CatmullRom when nil.
	Scaler draw.Interpolator

	// Logger receives worker failures and lifecycle events,
	// the logrus standard logger when nil.
	Logger log.FieldLogger
}

// Stats is a snapshot of the Store's bookkeeping.
type Stats struct {
	Cached   int
	Pending  int
	Queued   int
	InFlight int
	Ready    int
}

// Store is the texture cache. It must be created, used and cleaned up on
// the goroutine that owns the graphics context.
type Store struct {
	device gfx.Device
	loader *loader
	log    log.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	cache   map[string]*Texture
	pending map[string]struct{}
	queue   *blocking.Queue[string]
	results *blocking.Map[string, *image.RGBA]
	pool    *pool

	closers []io.Closer
	closed  bool
}

// NewStore creates a Store that creates textures on device from bytes
// found through chain, and starts its workers.
func NewStore(device gfx.Device, chain resolve.Chain, opts Options) *Store {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	switch {
	case opts.MaxDimension == 0:
		opts.MaxDimension = DefaultMaxDimension
	case opts.MaxDimension < 0:
		opts.MaxDimension = 0
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		device: device,
		loader: &loader{
			chain:   chain,
			decoder: Decoder{MaxDimension: opts.MaxDimension, Scaler: opts.Scaler},
			log:     opts.Logger,
		},
		log:     opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
		cache:   make(map[string]*Texture),
		pending: make(map[string]struct{}),
		queue:   blocking.NewQueue[string](),
		results: blocking.NewMap[string, *image.RGBA](),
	}
	s.pool = startPool(ctx, opts.Workers, s.queue, s.results, s.loader, opts.Logger)
	s.log.WithFields(log.Fields{
		"workers":      opts.Workers,
		"maxDimension": opts.MaxDimension,
	}).Info("texture store started")
	return s
}

// Load returns the texture for key, decoding it on the calling goroutine
// if no worker has produced it yet. A queued request for key is dropped; a
// worker already decoding key is waited for instead of racing it. The returned texture is retained for
// the caller. On failure it returns nil and the error.
func (s *Store) Load(key string, cfg gfx.Config) (*Texture, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if tex, ok := s.cache[key]; ok {
		return tex.Retain(), nil
	}
	if tex, claimed, err := s.claim(key, cfg); claimed {
		return tex, err
	}

	s.GarbageCollect()
	if _, ok := s.pending[key]; ok {
		s.Abort(key)
	}
	// A worker already decoding key finishes first; its result is used
	// if it succeeded.
	for !s.pool.begin(key) {
		if err := s.pool.wait(s.ctx, key); err != nil {
			return nil, err
		}
		if tex, claimed, err := s.claim(key, cfg); claimed {
			return tex, err
		}
	}
	pixels, err := s.loader.load(s.ctx, key)
	s.pool.end(key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("texture load failed")
		return nil, err
	}
	s.results.Delete(key)
	return s.create(key, pixels, cfg)
}

// Fetch returns the texture for key if it is cached or a worker has
// finished decoding it. Otherwise it queues the key, once, and returns nil;
// the caller polls again on a later frame. A non-nil error means the
// decoded key could not be turned into a texture.
func (s *Store) Fetch(key string, cfg gfx.Config) (*Texture, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if tex, ok := s.cache[key]; ok {
		return tex.Retain(), nil
	}
	if tex, claimed, err := s.claim(key, cfg); claimed {
		return tex, err
	}

	s.GarbageCollect()
	if _, ok := s.pending[key]; !ok {
		s.pending[key] = struct{}{}
		s.queue.Push(key, true)
	}
	return nil, nil
}

// Await is Fetch that waits for the worker result. It blocks the owning
// goroutine, so it is meant for loading screens rather than frames.
func (s *Store) Await(ctx context.Context, key string, cfg gfx.Config) (*Texture, error) {
	tex, err := s.Fetch(key, cfg)
	if tex != nil || err != nil {
		return tex, err
	}

	pixels, err := s.results.WaitAndPop(ctx, key)
	if err != nil {
		return nil, err
	}
	delete(s.pending, key)
	tex, err = s.create(key, pixels, cfg)
	if err != nil {
		return nil, err
	}
	s.GarbageCollect()
	return tex, nil
}

// Abort drops key from the pending set and the work queue, reporting
// whether it was still queued. A decode already running is not stopped;
// its result stays unclaimed until the key is requested again.
func (s *Store) Abort(key string) bool {
	delete(s.pending, key)
	return s.queue.EraseAll(key) > 0
}

// IsLoading reports whether key is queued or being decoded.
func (s *Store) IsLoading(key string) bool {
	_, ok := s.pending[key]
	return ok
}

// IsLoaded reports whether key is cached.
func (s *Store) IsLoaded(key string) bool {
	_, ok := s.cache[key]
	return ok
}

// GarbageCollect releases every cached texture that no caller holds and
// returns how many were evicted.
func (s *Store) GarbageCollect() int {
	var evicted int
	for key, tex := range s.cache {
		if tex.Refs() > 0 {
			continue
		}
		delete(s.cache, key)
		tex.res.Release()
		evicted++
	}
	if evicted > 0 {
		s.log.WithField("evicted", evicted).Debug("texture cache collected")
	}
	return evicted
}

// Stats returns the current bookkeeping counts.
func (s *Store) Stats() Stats {
	return Stats{
		Cached:   len(s.cache),
		Pending:  len(s.pending),
		Queued:   s.queue.Len(),
		InFlight: s.pool.inFlight(),
		Ready:    s.results.Len(),
	}
}

// Cleanup stops and joins the workers, releases every cached texture and
// clears all state. It must run before the graphics context is destroyed.
// Textures handed out earlier must not be used afterwards.
func (s *Store) Cleanup() {
	if s.closed {
		return
	}
	s.closed = true

	s.cancel()
	if err := s.pool.stop(); err != nil {
		s.log.WithError(err).Error("texture workers stopped with error")
	}
	s.results.Close()

	for key, tex := range s.cache {
		tex.res.Release()
		delete(s.cache, key)
	}
	s.pending = make(map[string]struct{})

	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.log.WithError(err).Warn("closing asset source failed")
		}
	}
	s.closers = nil
	s.log.Info("texture store stopped")
}

// claim turns a finished worker result for key into a cached texture.
// claimed is false when there was no result to take.
func (s *Store) claim(key string, cfg gfx.Config) (tex *Texture, claimed bool, err error) {
	pixels, ok := s.results.TryPop(key)
	if !ok {
		return nil, false, nil
	}
	delete(s.pending, key)
	tex, err = s.create(key, pixels, cfg)
	if err != nil {
		return nil, true, err
	}
	s.GarbageCollect()
	return tex, true, nil
}

func (s *Store) create(key string, pixels *image.RGBA, cfg gfx.Config) (*Texture, error) {
	res, err := s.device.CreateTexture(key, pixels, cfg)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("texture creation failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrCreate, key, err)
	}
	tex := &Texture{key: key, res: res}
	tex.refs.Store(1)
	s.cache[key] = tex
	return tex, nil
}
