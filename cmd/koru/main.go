// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command koru loads textures through the background texture store from a
// headless frame loop, the way a renderer would poll it every frame.
//
//	koru [flags] key...
package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/korutex/core"
	"github.com/devblok/korutex/gfx"
	"github.com/devblok/korutex/resolve"
	"github.com/devblok/korutex/texture"
)

// Assets are compiled into the binary by packr, read from ./assets next to
// this file otherwise.
var assets = packr.NewBox("./assets")

func init() {
	runtime.LockOSThread()
}

var (
	envFile    = flag.String("env", "", "Load environment from this file instead of ./.env")
	timeout    = flag.Duration("timeout", 30*time.Second, "Give up on keys not loaded after this long")
	cpuProfile = flag.String("cpuprof", "", "Profile CPU usage to file")
	nearest    = flag.Bool("nearest", false, "Create textures with nearest filtering")
)

func main() {
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := core.LoadEnv(envFiles...); err != nil {
		log.Fatal(err)
	}
	configuration, err := core.FromEnv(core.DefaultConfiguration)
	if err != nil {
		log.Fatal(err)
	}
	if err := core.ConfigureLogger(configuration.Log); err != nil {
		log.Fatal(err)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	keys := flag.Args()
	if len(keys) == 0 {
		flag.PrintDefaults()
		return
	}

	device := gfx.NewMemoryDevice(0)
	store, err := texture.Open(device, configuration.Assets, log.StandardLogger(),
		resolve.NewBundle("packr:assets", &assets))
	if err != nil {
		log.Fatal(err)
	}
	defer store.Cleanup()

	format := gfx.DefaultConfig
	if *nearest {
		format.MinFilter, format.MagFilter = gfx.FilterNearest, gfx.FilterNearest
	}

	loaded := run(store, keys, format, core.NewTime(configuration.Time))
	for _, tex := range loaded {
		tex.Release()
	}
	store.GarbageCollect()
	log.WithField("live", device.Live()).Info("done")
}

// run polls the store once per frame until every key is loaded, failed,
// timed out or the process is interrupted.
func run(store *texture.Store, keys []string, format gfx.Config, clock *core.Time) map[string]*texture.Texture {
	defer clock.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	loaded := make(map[string]*texture.Texture, len(keys))
	failed := make(map[string]error)

EventLoop:
	for len(loaded)+len(failed) < len(keys) {
		select {
		case <-interrupt:
			log.Warn("interrupted")
			break EventLoop
		case <-clock.EventTicker().C:
			log.WithField("stats", store.Stats()).Debug("texture store")
		case <-clock.FpsTicker().C:
			frame := clock.Frame()
			for _, key := range keys {
				if _, done := loaded[key]; done {
					continue
				}
				if _, done := failed[key]; done {
					continue
				}
				tex, err := store.Fetch(key, format)
				switch {
				case err != nil:
					failed[key] = err
					log.WithError(err).WithField("key", key).Error("texture failed")
				case tex != nil:
					loaded[key] = tex
					extent := tex.Extent()
					log.WithFields(log.Fields{
						"key":    key,
						"frame":  frame,
						"width":  extent.Width,
						"height": extent.Height,
						"mips":   format.MipLevels(extent),
						"texel":  gfx.TexelSize(extent),
					}).Info("texture loaded")
				}
			}
			if clock.Elapsed() > *timeout {
				log.WithField("timeout", *timeout).Warn("giving up")
				break EventLoop
			}
		}
	}

	for _, key := range keys {
		if store.IsLoading(key) {
			store.Abort(key)
			log.WithField("key", key).Warn("texture not loaded")
		}
	}
	return loaded
}
