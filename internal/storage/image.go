package storage

import (
	"bytes"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

const (
	avatarMaxEdge     = 512
	avatarWebPQuality = 80
)

// NormalizeAvatar decodes an uploaded image, scales it down to at most
// 512px on its longest edge and re-encodes it as WebP. Everything the
// API serves back is WebP regardless of what the client sent.
func NormalizeAvatar(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > avatarMaxEdge || h > avatarMaxEdge {
		scale := float64(avatarMaxEdge) / float64(w)
		if h > w {
			scale = float64(avatarMaxEdge) / float64(h)
		}

		dw := int(float64(w) * scale)
		dh := int(float64(h) * scale)

		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var out bytes.Buffer
	if err := webp.Encode(&out, src, &webp.Options{Quality: avatarWebPQuality}); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
