package classifier

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image/color"
	"testing"

	"greentrack/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader returns a PNG signature and IHDR chunk declaring a width x height
// 8-bit grayscale canvas. No pixel data follows.
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))

	return buf.Bytes()
}

func TestDecodeRejectsOversizedCanvas(t *testing.T) {
	data := pngHeader(12000, 12000)

	_, _, err := Decode(data)
	require.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Contains(t, err.Error(), "12000x12000")

	_, err = Heuristic{}.Classify(context.Background(), data, "huge.png")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestDecodeAcceptsNormalImage(t *testing.T) {
	img, format, err := Decode(pngBytes(t, color.NRGBA{R: 10, G: 200, B: 10, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 16, img.Bounds().Dx())
}
