// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"context"
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/korutex/resolve"
)

// loader resolves and decodes one key. It is shared by all workers and by
// Store.Load, and holds no mutable state.
type loader struct {
	chain   resolve.Chain
	decoder Decoder
	log     log.FieldLogger
}

// load never panics; a panicking resolver fails only key.
func (l *loader) load(ctx context.Context, key string) (pixels *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			pixels, err = nil, fmt.Errorf("resolve %s: panic: %v", key, r)
		}
	}()

	data, source, err := l.chain.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pixels, format, err := l.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	l.log.WithFields(log.Fields{
		"key":    key,
		"source": source,
		"format": format,
		"width":  pixels.Bounds().Dx(),
		"height": pixels.Bounds().Dy(),
	}).Debug("texture decoded")
	return pixels, nil
}
