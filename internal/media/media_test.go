package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/platform/apperr"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestValidate_AcceptsBounds(t *testing.T) {
	info, err := Validate(pngOf(t, 300, 200), Rules{})
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, info.Format)
	assert.Equal(t, 300, info.Width)
	assert.Equal(t, "png", info.Format.Ext())

	info, err = Validate(jpegOf(t, 200, 200), Rules{})
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, info.Format)
	assert.Equal(t, "jpg", info.Format.Ext())
	assert.Equal(t, "image/jpeg", info.Format.ContentType())
}

func TestValidate_Rejections(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"not image": []byte("GIF89a but not really an allowed image"),
		"too small": pngOf(t, 199, 400),
		"too large": pngOf(t, 50, 50),
	}
	rules := map[string]Rules{
		"too large": {MinDim: 10, MaxDim: 40},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Validate(data, rules[name])
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestValidate_MaxBytes(t *testing.T) {
	data := pngOf(t, 300, 300)
	_, err := Validate(data, Rules{MaxBytes: int64(len(data) - 1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOptimize_ResizesToBox(t *testing.T) {
	data := pngOf(t, 1600, 800)
	info, err := Validate(data, Rules{})
	require.NoError(t, err)

	out, outInfo, err := Optimize(data, info, OptimizeOptions{MaxDim: 400, Quality: 80})
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, outInfo.Format)
	assert.Equal(t, 400, outInfo.Width)
	assert.Equal(t, 200, outInfo.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, cfg.Width)
}

func TestOptimize_GarbageFails(t *testing.T) {
	_, _, err := Optimize([]byte("nope"), Info{}, OptimizeOptions{})
	assert.Error(t, err)
}
