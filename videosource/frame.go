package videosource

import (
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Frame is one decoded image and its creation time. A Frame owns its mat:
// whoever holds a Frame must Close it, and handing one across a boundary
// means Clone or encode, never sharing the mat.
type Frame struct {
	Mat         gocv.Mat
	CreatedTime time.Time
}

// NewFrame creates a new Frame taking ownership of mat
func NewFrame(mat gocv.Mat) Frame {
	f := Frame{
		Mat:         gocv.Mat{},
		CreatedTime: time.Now(),
	}
	if mat.Ptr() != nil && !mat.Empty() {
		f.Mat = mat
	}
	return f
}

// IsValid checks the underlying mat for validity
func (f *Frame) IsValid() bool {
	return f.Mat.Ptr() != nil && !f.Mat.Empty()
}

// Height returns the Frame height or -1
func (f *Frame) Height() int {
	if !f.IsValid() {
		return -1
	}
	return f.Mat.Rows()
}

// Width returns the Frame width or -1
func (f *Frame) Width() int {
	if !f.IsValid() {
		return -1
	}
	return f.Mat.Cols()
}

// Clone returns a deep copy owned by the caller
func (f *Frame) Clone() Frame {
	clone := Frame{
		CreatedTime: f.CreatedTime,
	}
	if f.IsValid() {
		clone.Mat = f.Mat.Clone()
	}
	return clone
}

// Close releases the underlying mat
func (f *Frame) Close() {
	if f.IsValid() {
		f.Mat.Close()
	}
}

// EncodeJpeg encodes the Frame to jpeg bytes at the given quality percent.
// The returned slice is owned by the caller.
func (f *Frame) EncodeJpeg(quality int) ([]byte, error) {
	if !f.IsValid() {
		return nil, errors.New("invalid frame")
	}
	if quality <= 0 || quality > 100 {
		quality = 100
	}
	jpgParams := []int{gocv.IMWriteJpegQuality, quality}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, f.Mat, jpgParams)
	if err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	defer buf.Close()
	encoded := buf.GetBytes()
	data := make([]byte, len(encoded))
	copy(data, encoded)
	return data, nil
}
