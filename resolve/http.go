// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrStatus is returned when a remote asset responds with a non 2xx status.
var ErrStatus = errors.New("resolve: unexpected http status")

// HTTP resolves keys that are http or https URLs. Any other key is not found.
type HTTP struct {
	Client *http.Client

	// MaxBytes caps the body size, zero means unlimited.
	MaxBytes int64
}

// Name implements Resolver.
func (HTTP) Name() string { return "network" }

// Resolve implements Resolver.
func (h HTTP) Resolve(ctx context.Context, key string) ([]byte, error) {
	u, err := url.Parse(key)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s is not a url", ErrNotFound, key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, key, resp.Status)
	}

	var body io.Reader = resp.Body
	if h.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, h.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if h.MaxBytes > 0 && int64(len(data)) > h.MaxBytes {
		return nil, fmt.Errorf("resolve: %s exceeds %d bytes", key, h.MaxBytes)
	}
	return data, nil
}
