// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package resource resolves image sources to decoded pixels.
//
// A source is a data: URI, an http(s) URL, or a file path. Decoded images
// are gg.ImageBuf values shared through a sharded LRU cache keyed by source,
// and concurrent requests for one source share a single fetch.
//
// Loaders are called from background goroutines. They never touch a
// surface; handing pixels back to the UI goroutine and checking the surface
// generation is the caller's job.
package resource
