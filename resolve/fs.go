// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem resolves keys as paths on the local disk. Relative keys are
// taken relative to Root, absolute keys are used as they are.
type FileSystem struct {
	Root string
}

// Name implements Resolver.
func (FileSystem) Name() string { return "filesystem" }

// Resolve implements Resolver.
func (f FileSystem) Resolve(_ context.Context, key string) ([]byte, error) {
	path := key
	if f.Root != "" && !filepath.IsAbs(key) {
		path = filepath.Join(f.Root, key)
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case err != nil:
		return nil, err
	}
	return data, nil
}
