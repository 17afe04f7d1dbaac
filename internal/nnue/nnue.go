// Package nnue resolves and fetches the per-variant neural-network weight
// files the engine loads for non-default variants.
package nnue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/fairy-xboard/internal/variant"
)

const defaultTimeout = 60 * time.Second

// Path returns where the weight file for v lives under dir, or "" when the
// variant needs none.
func Path(dir string, v variant.Variant) (string, error) {
	info, err := variant.Lookup(v)
	if err != nil {
		return "", err
	}
	if info.NNUEFile == "" {
		return "", nil
	}
	return filepath.Join(dir, info.NNUEFile), nil
}

type Fetcher struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

type Option func(*Fetcher)

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

func NewFetcher(baseURL string, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &fasthttp.Client{ReadTimeout: defaultTimeout, WriteTimeout: 10 * time.Second},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Ensure makes the weight file for v present under dir, downloading it
// when missing, and returns its path ("" when the variant needs none).
func (f *Fetcher) Ensure(ctx context.Context, dir string, v variant.Variant) (string, error) {
	path, err := Path(dir, v)
	if err != nil || path == "" {
		return path, err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create weight dir: %w", err)
	}

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(f.baseURL + "/" + filepath.Base(path))

	if err := f.http.DoTimeout(req, resp, timeout); err != nil {
		return "", fmt.Errorf("fetch %s: %w", filepath.Base(path), err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", filepath.Base(path), resp.StatusCode())
	}

	tmp := path + ".partial"
	if err := os.WriteFile(tmp, resp.Body(), 0o644); err != nil {
		return "", fmt.Errorf("write weight file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("place weight file: %w", err)
	}
	return path, nil
}
