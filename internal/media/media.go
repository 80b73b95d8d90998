// Package media valida y optimiza las fotos de mascotas antes de subirlas.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"petguard/internal/platform/apperr"
)

const (
	DefaultMaxBytes = 5 * 1024 * 1024
	DefaultMinDim   = 200
	DefaultMaxDim   = 4000
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
)

var contentTypes = map[string]Format{
	"image/jpeg": FormatJPEG,
	"image/png":  FormatPNG,
	"image/webp": FormatWEBP,
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// Rules son los límites de validación. Ceros => defaults.
type Rules struct {
	MaxBytes int64
	MinDim   int
	MaxDim   int
}

func (r Rules) withDefaults() Rules {
	if r.MaxBytes <= 0 {
		r.MaxBytes = DefaultMaxBytes
	}
	if r.MinDim <= 0 {
		r.MinDim = DefaultMinDim
	}
	if r.MaxDim <= 0 {
		r.MaxDim = DefaultMaxDim
	}
	return r
}

type Info struct {
	Format Format
	Width  int
	Height int
	Size   int
}

// Validate revisa tipo (por contenido, no por nombre), tamaño y dimensiones.
// Nada se sube si devuelve error.
func Validate(data []byte, rules Rules) (Info, error) {
	rules = rules.withDefaults()

	if len(data) == 0 {
		return Info{}, apperr.Invalid("photo", "empty file")
	}
	if int64(len(data)) > rules.MaxBytes {
		return Info{}, apperr.Invalid("photo", fmt.Sprintf("file exceeds %d MB", rules.MaxBytes/(1024*1024)))
	}

	format, ok := contentTypes[http.DetectContentType(data)]
	if !ok {
		return Info{}, apperr.Invalid("photo", "only JPEG, PNG or WEBP images are allowed")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, apperr.Invalid("photo", "unreadable image")
	}
	if cfg.Width < rules.MinDim || cfg.Height < rules.MinDim {
		return Info{}, apperr.Invalid("photo", fmt.Sprintf("image must be at least %dx%d px", rules.MinDim, rules.MinDim))
	}
	if cfg.Width > rules.MaxDim || cfg.Height > rules.MaxDim {
		return Info{}, apperr.Invalid("photo", fmt.Sprintf("image must be at most %dx%d px", rules.MaxDim, rules.MaxDim))
	}

	return Info{Format: format, Width: cfg.Width, Height: cfg.Height, Size: len(data)}, nil
}

type OptimizeOptions struct {
	// MaxDim es el lado máximo de la caja de salida.
	MaxDim  int
	Quality int
}

// Optimize reescala a la caja MaxDim y recomprime en JPEG.
// Si el resultado no mejora el original (sin reescalar y más pesado) devuelve el original.
func Optimize(data []byte, info Info, opts OptimizeOptions) ([]byte, Info, error) {
	if opts.MaxDim <= 0 {
		opts.MaxDim = 1200
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 82
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode image: %w", err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), opts.MaxDim)
	resized := w != src.Bounds().Dx() || h != src.Bounds().Dy()

	// fondo blanco: JPEG no tiene alfa
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, Info{}, fmt.Errorf("encode jpeg: %w", err)
	}

	if !resized && buf.Len() >= len(data) {
		return data, info, nil
	}
	return buf.Bytes(), Info{Format: FormatJPEG, Width: w, Height: h, Size: buf.Len()}, nil
}

func fit(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		return max, max * h / w
	}
	return max * w / h, max
}
