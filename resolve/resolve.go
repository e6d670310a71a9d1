// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resolve turns asset keys into bytes. A key is opaque: it may be a
// path on disk, a path inside a bundle of assets shipped with the
// application, or a remote URL. A Chain tries each source in order and
// stops at the first one that produces data.
package resolve

import (
	"context"
	"errors"
	"fmt"
)

// package errors
var (
	ErrNotFound = errors.New("resolve: not found")
)

// Resolver finds the bytes for a key in one particular source.
// A key that the source does not know must yield an error wrapping ErrNotFound.
type Resolver interface {
	Resolve(ctx context.Context, key string) ([]byte, error)

	// Name identifies the source in logs.
	Name() string
}

// Chain is an ordered fallback list of sources.
type Chain []Resolver

// Resolve tries every source in turn. The name of the source that
// succeeded is returned alongside the data; when all fail, the returned
// error joins each source's failure.
func (c Chain) Resolve(ctx context.Context, key string) ([]byte, string, error) {
	var errs []error
	for _, r := range c {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		data, err := r.Resolve(ctx, key)
		if err == nil {
			return data, r.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	if len(errs) == 0 {
		return nil, "", fmt.Errorf("%w: %s: no sources", ErrNotFound, key)
	}
	return nil, "", errors.Join(errs...)
}
