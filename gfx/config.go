// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"math/bits"

	glm "github.com/go-gl/mathgl/mgl32"
)

// WrapMode selects how texture coordinates outside [0, 1] are handled.
type WrapMode int

// Supported wrap modes
const (
	WrapRepeat WrapMode = iota
	WrapMirroredRepeat
	WrapClampToEdge
	WrapClampToBorder
)

// Filter selects texel filtering.
type Filter int

// Supported filters
const (
	FilterLinear Filter = iota
	FilterNearest
)

// Config is passed through unmodified to Device.CreateTexture.
type Config struct {
	Wrap      WrapMode
	MinFilter Filter
	MagFilter Filter
	Mipmaps   bool

	// BorderColor is used with WrapClampToBorder.
	BorderColor glm.Vec4
}

// DefaultConfig repeats and filters linearly, with mipmaps.
var DefaultConfig = Config{
	Wrap:        WrapRepeat,
	MinFilter:   FilterLinear,
	MagFilter:   FilterLinear,
	Mipmaps:     true,
	BorderColor: glm.Vec4{0, 0, 0, 1},
}

// MipLevels returns the number of mip levels a texture of the given
// extent gets with this configuration.
func (c Config) MipLevels(e Extent2D) int {
	if !c.Mipmaps || e.Longest() <= 0 {
		return 1
	}
	return bits.Len(uint(e.Longest()))
}

// TexelSize is the size of one texel in normalised texture coordinates.
func TexelSize(e Extent2D) glm.Vec2 {
	if e.Width <= 0 || e.Height <= 0 {
		return glm.Vec2{}
	}
	return glm.Vec2{1 / float32(e.Width), 1 / float32(e.Height)}
}
