package element

import (
	"bytes"
	"image"
	"image/gif"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/dshills/lectern/internal/engine/document"
)

// defaultFrameDelay is used for frames that declare no delay.
const defaultFrameDelay = 100 * time.Millisecond

// Video is an animated picture. Playback starts on the first placement and
// advances with Update.
type Video struct {
	owner
	sprites

	path    string
	frames  []image.Image
	delays  []time.Duration
	baseW   int
	baseH   int
	loop    bool
	playing bool
	frame   int
	elapsed time.Duration
	logger  *zap.Logger
}

// OpenVideo loads the animated GIF at path.
func OpenVideo(path string, opts ...Option) (*Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	if !filetype.Is(data, "gif") {
		return nil, &ResourceError{Path: path, Err: ErrUnsupportedMedia}
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	frames, delays := compose(g)
	v, err := NewVideo(frames, delays, opts...)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	v.path = path
	return v, nil
}

// NewVideo creates a video from full frames and their display times.
func NewVideo(frames []image.Image, delays []time.Duration, opts ...Option) (*Video, error) {
	if len(frames) == 0 || frames[0].Bounds().Empty() {
		return nil, ErrEmptyMedia
	}
	o := buildOptions(opts)
	b := frames[0].Bounds()
	srcW := float64(b.Dx()) * o.sampleAspect * o.unitX
	srcH := float64(b.Dy()) * o.unitY
	w, h := Fit(o.width, o.height, srcW, srcH)

	ds := make([]time.Duration, len(frames))
	for i := range ds {
		ds[i] = defaultFrameDelay
		if i < len(delays) && delays[i] > 0 {
			ds[i] = delays[i]
		}
	}
	o.logger.Debug("video loaded", zap.Int("frames", len(frames)), zap.Int("w", w), zap.Int("h", h))
	return &Video{
		sprites: newSprites(o.layer, frames[0], w, h),
		frames:  frames,
		delays:  ds,
		baseW:   w,
		baseH:   h,
		loop:    o.loop,
		logger:  o.logger,
	}, nil
}

// compose flattens GIF frames, which may be partial, into full pictures
// honoring the disposal methods.
func compose(g *gif.GIF) ([]image.Image, []time.Duration) {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() && len(g.Image) > 0 {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewNRGBA(bounds)
	frames := make([]image.Image, 0, len(g.Image))
	delays := make([]time.Duration, 0, len(g.Image))
	for i, fr := range g.Image {
		var saved *image.NRGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			saved = imaging.Clone(canvas)
		}
		draw.Draw(canvas, fr.Bounds(), fr, fr.Bounds().Min, draw.Over)
		frames = append(frames, imaging.Clone(canvas))
		if i < len(g.Delay) {
			delays = append(delays, time.Duration(g.Delay[i])*10*time.Millisecond)
		}

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, fr.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return frames, delays
}

// Path returns the file the video was loaded from, if any.
func (v *Video) Path() string { return v.path }

// Frames returns the number of frames.
func (v *Video) Frames() int { return len(v.frames) }

// Frame returns the index of the frame on screen.
func (v *Video) Frame() int { return v.frame }

// Playing reports whether the player is running.
func (v *Video) Playing() bool { return v.playing }

// Play starts or resumes playback.
func (v *Video) Play() { v.playing = len(v.frames) > 1 }

// Pause stops playback on the current frame.
func (v *Video) Pause() { v.playing = false }

// Update advances playback by dt.
func (v *Video) Update(dt time.Duration) {
	if !v.playing {
		return
	}
	start := v.frame
	v.elapsed += dt
	for v.elapsed >= v.delays[v.frame] {
		v.elapsed -= v.delays[v.frame]
		if v.frame == len(v.frames)-1 {
			if !v.loop {
				v.playing = false
				v.elapsed = 0
				break
			}
			v.frame = 0
			continue
		}
		v.frame++
	}
	if v.frame != start {
		v.setImage(v.frames[v.frame])
	}
}

func (v *Video) rewind() {
	v.playing = false
	v.frame = 0
	v.elapsed = 0
	v.setImage(v.frames[0])
}

// Metrics implements document.Element.
func (v *Video) Metrics() document.Metrics { return v.metrics() }

// Place implements document.Element. The first placement starts playback.
func (v *Video) Place(s document.Surface, x, y int) error {
	first := len(v.placed) == 0
	if err := v.place(s, x, y); err != nil {
		return err
	}
	if first && len(v.placed) > 0 {
		v.Play()
	}
	return nil
}

// Remove implements document.Element. The player stops and rewinds once
// the video is placed nowhere.
func (v *Video) Remove(s document.Surface) {
	v.remove(s)
	if len(v.placed) == 0 {
		v.rewind()
	}
}

// SetOpacity implements document.Element.
func (v *Video) SetOpacity(a uint8) { v.setAlpha(a) }

// SetScale implements document.Element.
func (v *Video) SetScale(f float64) {
	if f <= 0 {
		return
	}
	if v.resize(scaled(v.baseW, f), scaled(v.baseH, f)) {
		v.changed(v)
	}
}
