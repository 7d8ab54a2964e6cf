// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Scheme classifies a source reference.
type Scheme int

// Source schemes.
const (
	SchemeUnknown Scheme = iota
	SchemeData
	SchemeHTTP
	SchemeFile
)

func (s Scheme) String() string {
	switch s {
	case SchemeData:
		return "data"
	case SchemeHTTP:
		return "http"
	case SchemeFile:
		return "file"
	}
	return "unknown"
}

// Classify returns the scheme of src.
func Classify(src string) Scheme {
	lower := strings.ToLower(src)
	switch {
	case src == "":
		return SchemeUnknown
	case strings.HasPrefix(lower, "data:"):
		return SchemeData
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SchemeHTTP
	case strings.HasPrefix(lower, "file://"):
		return SchemeFile
	case strings.Contains(src, "://"):
		return SchemeUnknown
	}
	return SchemeFile
}

// parseDataURI returns the payload of a data: URI. Both base64 and
// percent-encoded payloads are accepted.
func parseDataURI(src string) ([]byte, error) {
	rest := src[len("data:"):]
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrMalformedDataURI
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
	}
	return []byte(s), nil
}

// fetchHTTP downloads src, refusing bodies larger than limit bytes.
func fetchHTTP(ctx context.Context, client *http.Client, src string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}
	if limit > 0 && resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	return readLimited(resp.Body, limit)
}

// readFile reads a local path. Relative paths resolve against base.
func readFile(src, base string, limit int64) ([]byte, error) {
	path := strings.TrimPrefix(src, "file://")
	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resource: open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readLimited(f, limit)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
