// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/korutex/core"
	"github.com/devblok/korutex/gfx"
	"github.com/devblok/korutex/resolve"
	"github.com/devblok/korutex/utility/kar"
)

// NewChain builds the resolver chain described by cfg: the filesystem,
// then the kar bundle and packr box if configured, then extra, then the
// network. The returned closers release the bundle and belong to the caller.
func NewChain(cfg core.AssetsConfiguration, extra ...resolve.Resolver) (resolve.Chain, []io.Closer, error) {
	chain := resolve.Chain{resolve.FileSystem{Root: cfg.Root}}
	var closers []io.Closer

	if cfg.Bundle != "" {
		f, err := kar.OpenFile(cfg.Bundle)
		if err != nil {
			return nil, nil, fmt.Errorf("open bundle %s: %w", cfg.Bundle, err)
		}
		chain = append(chain, resolve.NewKarBundle(cfg.Bundle, f.Archive))
		closers = append(closers, f)
	}
	if cfg.BundleBox != "" {
		box, err := resolve.NewPackrBundle(cfg.BundleBox)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		chain = append(chain, box)
	}
	chain = append(chain, extra...)

	chain = append(chain, resolve.HTTP{
		Client: &http.Client{Timeout: cfg.HTTPTimeout},
	})
	return chain, closers, nil
}

// Open creates a Store configured from cfg, with extra resolvers such as
// compiled in asset boxes tried before the network. The store owns the
// opened bundle and closes it on Cleanup.
func Open(device gfx.Device, cfg core.AssetsConfiguration, logger log.FieldLogger, extra ...resolve.Resolver) (*Store, error) {
	scaler, err := ScalerByName(cfg.Scaler)
	if err != nil {
		return nil, err
	}
	chain, closers, err := NewChain(cfg, extra...)
	if err != nil {
		return nil, err
	}

	s := NewStore(device, chain, Options{
		Workers:      cfg.Workers,
		MaxDimension: cfg.MaxDimension,
		Scaler:       scaler,
		Logger:       logger,
	})
	s.closers = closers
	return s, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}
