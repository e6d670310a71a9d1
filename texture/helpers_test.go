// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/korutex/resolve"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.Out = io.Discard
	return logger
}

// fakeSource serves in-memory files and can hold individual keys until
// they are let through, counting how often and how concurrently each key
// is resolved.
type fakeSource struct {
	mutex     sync.Mutex
	files     map[string][]byte
	gates     map[string]chan struct{}
	calls     map[string]int
	active    map[string]int
	maxActive map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		files:     make(map[string][]byte),
		gates:     make(map[string]chan struct{}),
		calls:     make(map[string]int),
		active:    make(map[string]int),
		maxActive: make(map[string]int),
	}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Resolve(ctx context.Context, key string) ([]byte, error) {
	f.mutex.Lock()
	f.calls[key]++
	f.active[key]++
	if f.active[key] > f.maxActive[key] {
		f.maxActive[key] = f.active[key]
	}
	gate := f.gates[key]
	data, ok := f.files[key]
	f.mutex.Unlock()

	defer func() {
		f.mutex.Lock()
		f.active[key]--
		f.mutex.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", resolve.ErrNotFound, key)
	}
	return data, nil
}

func (f *fakeSource) add(key string, data []byte) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.files[key] = data
}

// hold makes resolving key block until release is called.
func (f *fakeSource) hold(key string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.gates[key] = make(chan struct{})
}

func (f *fakeSource) release(key string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if gate, ok := f.gates[key]; ok {
		close(gate)
		delete(f.gates, key)
	}
}

func (f *fakeSource) callCount(key string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls[key]
}

func (f *fakeSource) maxConcurrent(key string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.maxActive[key]
}

func eventually(t *testing.T, cond func() bool, format string, args ...interface{}) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out: "+format, args...)
		}
		time.Sleep(time.Millisecond)
	}
}

// fetchUntilLoaded polls Fetch the way a frame loop would.
func fetchUntilLoaded(t *testing.T, s *Store, key string) *Texture {
	t.Helper()
	var tex *Texture
	eventually(t, func() bool {
		var err error
		tex, err = s.Fetch(key, testConfig)
		if err != nil {
			t.Fatalf("fetch %s: %v", key, err)
		}
		return tex != nil
	}, "%s never loaded", key)
	return tex
}
