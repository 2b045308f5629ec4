// Package render draws scene frames into images.
package render

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/gomono"

	"go.viam.com/pointview/scene"
	"go.viam.com/pointview/spatialmath"
)

const (
	// markerSize is the side of the square drawn on each point and on the pivot.
	markerSize = 4
	// DefaultFontSize is the text size in pixels.
	DefaultFontSize = 10
)

var monoFont *truetype.Font

func init() {
	var err error
	monoFont, err = truetype.Parse(gomono.TTF)
	if err != nil {
		panic(err)
	}
}

// Options configures a Renderer.
type Options struct {
	Theme Theme
	// Supersample draws at this multiple of the frame size and scales the result back down. Values
	// below 2 draw directly.
	Supersample int
	FontSize    float64
	LineWidth   float64
}

// DefaultOptions draws with the default theme and no supersampling.
func DefaultOptions() Options {
	return Options{
		Theme:     DefaultTheme(),
		FontSize:  DefaultFontSize,
		LineWidth: 1,
	}
}

// Renderer draws frames. It holds no per-frame state and may be shared.
type Renderer struct {
	opts Options
}

// New returns a renderer for the given options.
func New(opts Options) (*Renderer, error) {
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if opts.Supersample > 8 {
		return nil, errors.Errorf("supersample factor must be at most 8, got %d", opts.Supersample)
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 1
	}
	return &Renderer{opts: opts}, nil
}

// Render draws frame: the poly-line through its points, the three axes and either the debug
// overlay or the hint for enabling it.
func (r *Renderer) Render(frame scene.RenderFrame) (image.Image, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, errors.Errorf("cannot render a %dx%d frame", frame.Width, frame.Height)
	}
	k := r.opts.Supersample
	dc := gg.NewContext(frame.Width*k, frame.Height*k)
	dc.Scale(float64(k), float64(k))
	// faces cache glyphs and are not safe for concurrent use
	dc.SetFontFace(truetype.NewFace(monoFont, &truetype.Options{Size: r.opts.FontSize}))
	dc.SetLineWidth(r.opts.LineWidth)
	theme := r.opts.Theme

	dc.SetColor(theme.Background)
	dc.Clear()

	dc.SetColor(theme.Lines)
	polyline(dc, frame.Points)

	for i, c := range []colorful.Color{theme.AxisX, theme.AxisY, theme.AxisZ} {
		dc.SetColor(c)
		polyline(dc, []r2.Point{frame.Axes[i].From, frame.Axes[i].To})
	}

	if frame.Debug {
		r.drawDebug(dc, frame)
	}
	dc.SetColor(theme.Text)
	dc.DrawStringAnchored(frame.Header(), 2, 2, 0, 1)

	if k == 1 {
		return dc.Image(), nil
	}
	return imaging.Resize(dc.Image(), frame.Width, frame.Height, imaging.Lanczos), nil
}

func (r *Renderer) drawDebug(dc *gg.Context, frame scene.RenderFrame) {
	theme := r.opts.Theme

	dc.SetColor(theme.Points)
	for i, p := range frame.Points {
		if !spatialmath.IsFinitePoint(p) {
			continue
		}
		marker(dc, p)
		if i < len(frame.Points3D) {
			label(dc, p, scene.PointLabel(frame.Points3D[i]))
		}
	}

	if spatialmath.IsFinitePoint(frame.PivotScreen) {
		dc.SetColor(theme.Pivot)
		marker(dc, frame.PivotScreen)
		label(dc, frame.PivotScreen, scene.PointLabel(frame.Pivot))
	}
}

// polyline strokes segments between successive points. Segments touching a point that projected to
// infinity are skipped.
func polyline(dc *gg.Context, points []r2.Point) {
	drawing := false
	for _, p := range points {
		if !spatialmath.IsFinitePoint(p) {
			drawing = false
			continue
		}
		if drawing {
			dc.LineTo(p.X, p.Y)
		} else {
			dc.MoveTo(p.X, p.Y)
			drawing = true
		}
	}
	dc.Stroke()
}

func marker(dc *gg.Context, p r2.Point) {
	dc.DrawRectangle(p.X-markerSize/2, p.Y-markerSize/2, markerSize, markerSize)
	dc.Fill()
}

func label(dc *gg.Context, p r2.Point, text string) {
	dc.DrawStringAnchored(text, p.X+2, p.Y+4, 0, 1)
}
