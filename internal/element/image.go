package element

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dshills/lectern/internal/engine/document"
)

// Image is a still picture.
type Image struct {
	owner
	sprites

	path   string
	baseW  int
	baseH  int
	scale  float64
	logger *zap.Logger
}

// OpenImage loads the image at path. The format is sniffed from the file
// contents; EXIF orientation is applied.
func OpenImage(path string, opts ...Option) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	if !filetype.IsImage(data) {
		return nil, &ResourceError{Path: path, Err: ErrUnsupportedMedia}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	el, err := NewImage(img, opts...)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	el.path = path
	return el, nil
}

// NewImage wraps a decoded image.
func NewImage(img image.Image, opts ...Option) (*Image, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyMedia
	}
	o := buildOptions(opts)
	w, h := Fit(o.width, o.height, float64(b.Dx())*o.unitX, float64(b.Dy())*o.unitY)
	o.logger.Debug("image loaded", zap.Int("px_w", b.Dx()), zap.Int("px_h", b.Dy()), zap.Int("w", w), zap.Int("h", h))
	return &Image{
		sprites: newSprites(o.layer, img, w, h),
		baseW:   w,
		baseH:   h,
		scale:   1,
		logger:  o.logger,
	}, nil
}

// Path returns the file the image was loaded from, if any.
func (e *Image) Path() string { return e.path }

// Source returns the decoded picture.
func (e *Image) Source() image.Image { return e.img }

// Metrics implements document.Element. The picture stands on the baseline.
func (e *Image) Metrics() document.Metrics { return e.metrics() }

// Place implements document.Element.
func (e *Image) Place(s document.Surface, x, y int) error { return e.place(s, x, y) }

// Remove implements document.Element.
func (e *Image) Remove(s document.Surface) { e.remove(s) }

// SetOpacity implements document.Element.
func (e *Image) SetOpacity(v uint8) { e.setAlpha(v) }

// SetScale implements document.Element.
func (e *Image) SetScale(f float64) {
	if f <= 0 {
		return
	}
	e.scale = f
	if e.resize(scaled(e.baseW, f), scaled(e.baseH, f)) {
		e.changed(e)
	}
}
