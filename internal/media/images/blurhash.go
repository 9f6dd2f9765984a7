// Package images derives display data from stored cover images.
package images

import (
	"bytes"
	"fmt"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize is the target size for BlurHash computation.
// A small thumbnail produces nearly identical hashes at a fraction of the cost.
const blurHashSize = 64

// ComputeBlurHash generates a BlurHash placeholder for an encoded image.
// Uses 4x3 components, about 20-30 characters.
func ComputeBlurHash(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	thumb := img
	if b.Dx() > blurHashSize || b.Dy() > blurHashSize {
		thumb = imaging.Fit(img, blurHashSize, blurHashSize, imaging.Box)
	}

	// 4 horizontal, 3 vertical components suit portrait book covers.
	hash, err := blurhash.Encode(4, 3, thumb)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}
