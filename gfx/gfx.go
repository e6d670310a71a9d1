// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that renderers must implement.
package gfx

import (
	"errors"
	"image"
)

// package errors
var (
	ErrUnsupported = errors.New("gfx: unsupported texture")
	ErrEmptyImage  = errors.New("gfx: empty image")
)

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Resource describes a rendering resource that can be uniquely identified.
type Resource interface {
	Releasable

	// ID returns a resource id that uniquely identifies it.
	ID() string

	// Extent returns the size of the resource in texels.
	Extent() Extent2D
}

// Device creates GPU resources. Implementations are bound to the
// goroutine that owns the graphics context, and all of their methods
// must be called from it.
type Device interface {

	// CreateTexture uploads pixels into a new texture configured by cfg.
	CreateTexture(id string, pixels *image.RGBA, cfg Config) (Resource, error)
}

// Extent2D is a two dimensional size.
type Extent2D struct {
	Width  int
	Height int
}

// Longest returns the longer of the two sides.
func (e Extent2D) Longest() int {
	return max(e.Width, e.Height)
}
