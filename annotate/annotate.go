package annotate

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/DilanUni/security-video-detection/videosource"
)

// Func transforms a frame into an annotated frame. Implementations are
// pure: the input is never modified and the result is a new Frame owned by
// the caller. Detector overlays plug in through the same shape.
type Func func(videosource.Frame) videosource.Frame

const timestampLayout = "01-02-2006 15:04:05"

const (
	captionFont      = gocv.FontHersheySimplex
	captionScale     = 0.5
	captionThickness = 1
	captionPad       = 3
)

var (
	captionColor    = color.RGBA{255, 255, 255, 0}
	backgroundColor = color.RGBA{0, 0, 0, 0}
)

// Timestamp returns a Func stamping the frame's created time in the bottom
// left corner
func Timestamp() Func {
	return func(frame videosource.Frame) videosource.Frame {
		annotated := frame.Clone()
		if !annotated.IsValid() {
			return annotated
		}
		text := frame.CreatedTime.Format(timestampLayout)
		origin := image.Pt(captionPad+2, annotated.Height()-captionPad-5)
		drawCaption(&annotated, text, origin)
		return annotated
	}
}

// Label returns a Func stamping text in the top left corner
func Label(text string) Func {
	return func(frame videosource.Frame) videosource.Frame {
		annotated := frame.Clone()
		if !annotated.IsValid() || text == "" {
			return annotated
		}
		size := gocv.GetTextSize(text, captionFont, captionScale, captionThickness)
		origin := image.Pt(captionPad+2, size.Y+captionPad+2)
		drawCaption(&annotated, text, origin)
		return annotated
	}
}

// Chain composes funcs left to right into one Func, closing the
// intermediate frames. An empty chain clones.
func Chain(funcs ...Func) Func {
	return func(frame videosource.Frame) videosource.Frame {
		current := frame.Clone()
		for _, fn := range funcs {
			if fn == nil {
				continue
			}
			next := fn(current)
			current.Close()
			current = next
		}
		return current
	}
}

func drawCaption(frame *videosource.Frame, text string, origin image.Point) {
	size := gocv.GetTextSize(text, captionFont, captionScale, captionThickness)
	box := image.Rect(origin.X-captionPad, origin.Y-size.Y-captionPad,
		origin.X+size.X+captionPad, origin.Y+captionPad)
	gocv.Rectangle(&frame.Mat, box, backgroundColor, -1)
	gocv.PutText(&frame.Mat, text, origin, captionFont, captionScale, captionColor, captionThickness)
}
