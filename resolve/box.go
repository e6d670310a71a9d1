// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resolve

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gobuffalo/packd"
	"github.com/gobuffalo/packr"

	"github.com/devblok/korutex/utility/kar"
)

// Bundle resolves keys inside a collection of assets shipped with the
// application: a packr box, an in-memory packd box, or a kar archive.
type Bundle struct {
	name   string
	finder packd.Finder
}

// NewBundle wraps any finder. kar.Archive, packr.Box and packd boxes all qualify.
func NewBundle(name string, finder packd.Finder) *Bundle {
	return &Bundle{name: name, finder: finder}
}

// NewPackrBundle serves assets from the directory dir, read at runtime.
// packr resolves relative box paths against the calling source file, so dir
// is made absolute against the working directory first. Boxes compiled into
// the binary must be created from a literal with packr.NewBox and wrapped
// with NewBundle.
func NewPackrBundle(dir string) (*Bundle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("packr box %s: %w", dir, err)
	}
	box := packr.NewBox(abs)
	return NewBundle("packr:"+dir, &box), nil
}

// NewKarBundle serves assets from an opened kar archive.
func NewKarBundle(name string, ar *kar.Archive) *Bundle {
	return NewBundle("kar:"+name, ar)
}

// Name implements Resolver.
func (b *Bundle) Name() string { return b.name }

// Resolve implements Resolver.
func (b *Bundle) Resolve(_ context.Context, key string) ([]byte, error) {
	data, err := b.finder.Find(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, key, err)
	}
	return data, nil
}
