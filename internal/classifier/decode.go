package classifier

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"greentrack/pkg/types"

	_ "golang.org/x/image/webp"
)

// MaxPixels bounds the canvas an upload may declare, whatever its compressed size.
const MaxPixels = 40_000_000

// Decode turns an uploaded file into pixels. Any failure is reported as
// invalid input so callers never persist a scan for it.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", types.ErrInvalidInput)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode image header: %v", types.ErrInvalidInput, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: image dimensions %dx%d exceed %d pixels", types.ErrInvalidInput, cfg.Width, cfg.Height, MaxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode image: %v", types.ErrInvalidInput, err)
	}

	return img, format, nil
}
