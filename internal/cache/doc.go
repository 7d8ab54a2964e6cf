// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package cache provides the sharded LRU cache used for decoded images.
//
// Entries carry a cost (for images, their pixel byte size). Each shard
// evicts least recently used entries once its entry count or total cost
// exceeds its share of the configured limits.
//
//	c := cache.New[*gg.ImageBuf](cache.Options{Entries: 256, Cost: 64 << 20})
//	img, err := c.GetOrLoad(ctx, src, func() (*gg.ImageBuf, int64, error) { ... })
//
// Concurrent GetOrLoad calls for the same key share one load. The loader
// runs on its own goroutine without any shard lock held, so slow loads never
// block hits on other keys, and a caller giving up never fails the others.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
