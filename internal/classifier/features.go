package classifier

import (
	"fmt"
	"image"

	"greentrack/pkg/types"

	"golang.org/x/image/draw"
)

// WorkingSize is the edge length every image is resampled to before analysis.
const WorkingSize = 224

const (
	textureThreshold = 50
	edgeThreshold    = 100
)

// Features are the per-image tallies the classifier works from.
type Features struct {
	SourceWidth  int
	SourceHeight int
	TotalPixels  int
	Counts       map[types.WasteCategory]int

	// TextureComplexity and EdgeCount are percentages of all pixels.
	TextureComplexity float64
	EdgeCount         float64

	// BrightnessVariation is the mean distance of pixel brightness from 128.
	BrightnessVariation float64
	MeanBrightness      float64
}

// Percentage returns the share of pixels that landed in category c.
func (f *Features) Percentage(c types.WasteCategory) float64 {
	if f.TotalPixels == 0 {
		return 0
	}
	return 100 * float64(f.Counts[c]) / float64(f.TotalPixels)
}

// Extract resamples img to the working resolution and tallies it.
func Extract(img image.Image) (*Features, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", types.ErrInvalidInput)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: zero-size image", types.ErrInvalidInput)
	}

	working := image.NewNRGBA(image.Rect(0, 0, WorkingSize, WorkingSize))
	if bounds.Dx() == WorkingSize && bounds.Dy() == WorkingSize {
		draw.Draw(working, working.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(working, working.Bounds(), img, bounds, draw.Src, nil)
	}

	features := tally(working.Pix)
	features.SourceWidth = bounds.Dx()
	features.SourceHeight = bounds.Dy()

	return features, nil
}

// tally walks NRGBA pixel data in scan order. Alpha is ignored.
func tally(pix []uint8) *Features {
	features := &Features{
		Counts: make(map[types.WasteCategory]int, len(types.WasteCategories)),
	}

	total := len(pix) / 4
	if total == 0 {
		return features
	}

	var (
		texture, edges          int
		variation, brightnesses float64
		prev                    pixel
	)

	for i := 0; i < total; i++ {
		o := i * 4
		p := newPixel(pix[o], pix[o+1], pix[o+2])

		if category, ok := bucketFor(p); ok {
			features.Counts[category]++
		}

		if i > 0 {
			diff := abs(p.r-prev.r) + abs(p.g-prev.g) + abs(p.b-prev.b)
			if diff > textureThreshold {
				texture++
			}
			if diff > edgeThreshold {
				edges++
			}
		}

		variation += absf(p.brightness - 128)
		brightnesses += p.brightness
		prev = p
	}

	features.TotalPixels = total
	features.TextureComplexity = float64(texture) / float64(total) * 100
	features.EdgeCount = float64(edges) / float64(total) * 100
	features.BrightnessVariation = variation / float64(total)
	features.MeanBrightness = brightnesses / float64(total)

	return features
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
