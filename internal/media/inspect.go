package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize bounds the thumbnail the hash is computed from.
const blurHashSize = 64

// ImageInfo is the attachment metadata derived from the downloaded bytes.
type ImageInfo struct {
	Width    int
	Height   int
	BlurHash string
}

// Inspect decodes raster images and returns their dimensions and BlurHash.
// SVG and non-image payloads return an error; callers store the attachment without metadata.
func Inspect(data []byte) (*ImageInfo, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	info := &ImageInfo{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	hash, err := blurhash.Encode(4, 3, shrink(img))
	if err != nil {
		return info, fmt.Errorf("encode blurhash: %w", err)
	}
	info.BlurHash = hash

	return info, nil
}

// shrink does nearest-neighbour scaling down to blurHashSize on the long edge.
func shrink(img image.Image) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	if srcW <= blurHashSize && srcH <= blurHashSize {
		return img
	}

	var dstW, dstH int
	if srcW > srcH {
		dstW = blurHashSize
		dstH = max(1, srcH*blurHashSize/srcW)
	} else {
		dstH = blurHashSize
		dstW = max(1, srcW*blurHashSize/srcH)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)

	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			dst.Set(x, y, img.At(bounds.Min.X+int(float64(x)*xRatio), bounds.Min.Y+int(float64(y)*yRatio)))
		}
	}

	return dst
}
