// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"context"
	"image"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devblok/korutex/utility/blocking"
)

// pool is the fixed set of background decoders. Workers only ever touch
// the queue, the results and the in flight set, never the Store's cache.
type pool struct {
	queue   *blocking.Queue[string]
	results *blocking.Map[string, *image.RGBA]
	loader  *loader
	log     log.FieldLogger

	cancel context.CancelFunc
	group  *errgroup.Group

	mutex    sync.Mutex
	inflight map[string]chan struct{}
}

func startPool(parent context.Context, workers int, queue *blocking.Queue[string], results *blocking.Map[string, *image.RGBA], l *loader, logger log.FieldLogger) *pool {
	ctx, cancel := context.WithCancel(parent)
	group, ctx := errgroup.WithContext(ctx)
	p := &pool{
		queue:    queue,
		results:  results,
		loader:   l,
		log:      logger,
		cancel:   cancel,
		group:    group,
		inflight: make(map[string]chan struct{}),
	}
	for id := 0; id < workers; id++ {
		group.Go(func() error {
			return p.run(ctx, id)
		})
	}
	return p
}

func (p *pool) run(ctx context.Context, id int) error {
	logger := p.log.WithField("worker", id)
	logger.Debug("worker started")
	for {
		key, err := p.queue.WaitAndPop(ctx)
		if err != nil {
			logger.Debug("worker stopped")
			return nil
		}
		p.process(ctx, logger, key)
	}
}

func (p *pool) process(ctx context.Context, logger log.FieldLogger, key string) {
	logger = logger.WithField("key", key)
	if !p.begin(key) {
		// key is being decoded by another worker or Store.Load.
		logger.Debug("already in flight")
		return
	}
	defer p.end(key)

	pixels, err := p.loader.load(ctx, key)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		logger.WithError(err).Warn("texture load failed")
		return
	}
	p.results.Put(key, pixels)
}

// begin claims the only decode slot for key. It reports false if the
// slot is taken.
func (p *pool) begin(key string) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, ok := p.inflight[key]; ok {
		return false
	}
	p.inflight[key] = make(chan struct{})
	return true
}

func (p *pool) end(key string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if done, ok := p.inflight[key]; ok {
		close(done)
		delete(p.inflight, key)
	}
}

// wait blocks until no decode of key is in flight.
func (p *pool) wait(ctx context.Context, key string) error {
	p.mutex.Lock()
	done, ok := p.inflight[key]
	p.mutex.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pool) inFlight() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.inflight)
}

// stop signals every worker, wakes the ones blocked on the queue and
// waits for all of them to return.
func (p *pool) stop() error {
	p.cancel()
	p.queue.Close()
	return p.group.Wait()
}
