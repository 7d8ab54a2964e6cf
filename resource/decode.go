// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"

	"github.com/gogpu/gg"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Decode decodes an image, auto-detecting PNG, JPEG, GIF, WebP, BMP or TIFF.
func Decode(r io.Reader) (*gg.ImageBuf, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("resource: decode: %w", err)
	}
	return gg.ImageBufFromImage(img), format, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (*gg.ImageBuf, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("resource: decode: %w", ErrEmptySource)
	}
	return Decode(bytes.NewReader(data))
}
