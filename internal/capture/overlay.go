package capture

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Status is the text and progress drawn over stream frames.
type Status struct {
	Title string
	Lines []string
	// Progress and Hold are fractions in [0, 1].
	Progress float64
	Hold     float64
	// Alert colors the banner to draw attention to a correction.
	Alert bool
}

// Overlay layout, in pixels.
const (
	bannerLineHeight = 22
	bannerPadding    = 8
	barHeight        = 8
)

var (
	bannerColor   = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	alertColor    = color.RGBA{R: 150, G: 40, B: 30, A: 255}
	textColor     = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	trackColor    = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	progressColor = color.RGBA{R: 40, G: 200, B: 90, A: 255}
	holdColor     = color.RGBA{R: 240, G: 180, B: 30, A: 255}
)

// DrawStatus writes s onto frame in place: a text banner on top, the hold
// bar under it and the overall progress bar along the bottom edge.
func DrawStatus(frame *gocv.Mat, s Status) {
	if frame == nil || frame.Empty() {
		return
	}
	w, h := frame.Cols(), frame.Rows()

	lines := s.Lines
	if s.Title != "" {
		lines = append([]string{s.Title}, lines...)
	}

	bannerH := bannerPadding*2 + len(lines)*bannerLineHeight
	if len(lines) > 0 {
		bg := bannerColor
		if s.Alert {
			bg = alertColor
		}
		gocv.Rectangle(frame, image.Rect(0, 0, w, bannerH), bg, -1)
		for i, line := range lines {
			org := image.Pt(bannerPadding, bannerPadding+(i+1)*bannerLineHeight-6)
			gocv.PutText(frame, line, org, gocv.FontHersheySimplex, 0.6, textColor, 1)
		}
	}

	if s.Hold > 0 {
		drawBar(frame, image.Rect(0, bannerH, w, bannerH+barHeight), s.Hold, holdColor)
	}
	drawBar(frame, image.Rect(0, h-barHeight, w, h), s.Progress, progressColor)
}

func drawBar(frame *gocv.Mat, r image.Rectangle, fraction float64, c color.RGBA) {
	fraction = clamp01(fraction)
	gocv.Rectangle(frame, r, trackColor, -1)

	filled := int(float64(r.Dx()) * fraction)
	if filled <= 0 {
		return
	}
	gocv.Rectangle(frame, image.Rect(r.Min.X, r.Min.Y, r.Min.X+filled, r.Max.Y), c, -1)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
