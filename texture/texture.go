// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package texture loads images into GPU textures in the background.
//
// A Store resolves keys (disk paths, bundled asset names or URLs) on a pool
// of worker goroutines, decodes and downsamples them there, and hands the
// pixels back to the goroutine that owns the graphics context, which is the
// only one allowed to create textures. Requests for the same key are
// deduplicated while outstanding, and cached textures nobody holds any more
// are released by GarbageCollect.
//
// Store methods are meant to be called from that single owning goroutine.
// Only the work queue and the results are shared with the workers, so the
// cache and the pending set are not locked.
package texture

import (
	"sync/atomic"

	"github.com/devblok/korutex/gfx"
)

// Texture is a handle to a cached GPU texture. The Store keeps only a
// non-owning reference: a texture stays cached while at least one caller
// holds it, and every handle returned by Load, Fetch or Await must be
// given back with Release once it is no longer used.
type Texture struct {
	key  string
	res  gfx.Resource
	refs atomic.Int32
}

// Key returns the key the texture was loaded from.
func (t *Texture) Key() string {
	return t.key
}

// Resource returns the underlying GPU resource.
func (t *Texture) Resource() gfx.Resource {
	return t.res
}

// Extent returns the texture size in texels.
func (t *Texture) Extent() gfx.Extent2D {
	return t.res.Extent()
}

// Retain registers one more holder and returns t.
func (t *Texture) Retain() *Texture {
	t.refs.Add(1)
	return t
}

// Release gives up one hold on the texture. Calling it on nil is a no-op.
func (t *Texture) Release() {
	if t == nil {
		return
	}
	for {
		n := t.refs.Load()
		if n <= 0 || t.refs.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Refs returns the number of external holders.
func (t *Texture) Refs() int {
	return int(t.refs.Load())
}
