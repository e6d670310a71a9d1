// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"image"
	"sync"
)

// NewMemoryDevice creates a Device that keeps textures in host memory.
// It backs headless tools and tests. Textures larger than maxExtent on
// either side are rejected with ErrUnsupported; zero disables the limit.
func NewMemoryDevice(maxExtent int) *MemoryDevice {
	return &MemoryDevice{
		maxExtent: maxExtent,
		live:      make(map[*MemoryTexture]struct{}),
	}
}

// MemoryDevice is a Device without a GPU.
type MemoryDevice struct {
	maxExtent int

	mutex   sync.Mutex
	live    map[*MemoryTexture]struct{}
	created int
}

// CreateTexture copies nothing: the texture keeps a reference to pixels.
func (d *MemoryDevice) CreateTexture(id string, pixels *image.RGBA, cfg Config) (Resource, error) {
	if pixels == nil || pixels.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyImage, id)
	}
	extent := Extent2D{Width: pixels.Bounds().Dx(), Height: pixels.Bounds().Dy()}
	if d.maxExtent > 0 && extent.Longest() > d.maxExtent {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrUnsupported, id, extent.Width, extent.Height)
	}

	tex := &MemoryTexture{
		id:     id,
		extent: extent,
		config: cfg,
		pixels: pixels,
		device: d,
	}
	d.mutex.Lock()
	d.live[tex] = struct{}{}
	d.created++
	d.mutex.Unlock()
	return tex, nil
}

// Live returns the number of textures created and not yet released.
func (d *MemoryDevice) Live() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.live)
}

// Created returns the number of textures ever created.
func (d *MemoryDevice) Created() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.created
}

func (d *MemoryDevice) release(tex *MemoryTexture) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.live, tex)
}

// MemoryTexture is the Resource created by MemoryDevice.
type MemoryTexture struct {
	id     string
	extent Extent2D
	config Config
	pixels *image.RGBA
	device *MemoryDevice

	once sync.Once
}

// ID returns the key the texture was created for.
func (t *MemoryTexture) ID() string { return t.id }

// Extent returns the texture size.
func (t *MemoryTexture) Extent() Extent2D { return t.extent }

// Config returns the configuration the texture was created with.
func (t *MemoryTexture) Config() Config { return t.config }

// Pixels returns the texture contents.
func (t *MemoryTexture) Pixels() *image.RGBA { return t.pixels }

// Release drops the texture from its device. Safe to call more than once.
func (t *MemoryTexture) Release() {
	t.once.Do(func() {
		t.device.release(t)
		t.pixels = nil
	})
}
