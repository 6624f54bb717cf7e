package videosource

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Backend opens capture sources
type Backend interface {
	Open(id SourceID) (Handle, error)
}

// Handle is one opened capture source. Read returns ok false when the
// stream is exhausted or the device disconnects; that is the normal
// terminal condition for a handle, not a decode error worth retrying.
type Handle interface {
	Read() (frame Frame, ok bool)
	Rate() float64
	Close() error
}

// OpenCVBackend opens camera devices and video files through gocv
type OpenCVBackend struct{}

// Open acquires the device or file named by id
func (OpenCVBackend) Open(id SourceID) (Handle, error) {
	var capture *gocv.VideoCapture
	var err error
	switch {
	case id.IsDevice():
		capture, err = gocv.VideoCaptureDevice(id.Device)
	case id.IsFile():
		capture, err = gocv.VideoCaptureFile(id.Path)
	default:
		return nil, &OpenError{ID: id, Err: errors.New("invalid source identifier")}
	}
	if err != nil {
		return nil, &OpenError{ID: id, Err: err}
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, &OpenError{ID: id, Err: errors.New("video capture not opened")}
	}
	return &openCVHandle{capture: capture}, nil
}

type openCVHandle struct {
	capture *gocv.VideoCapture
}

// Read decodes one frame. An empty decode with the stream still open
// returns ok true and an invalid Frame so the caller can skip it.
func (h *openCVHandle) Read() (Frame, bool) {
	mat := gocv.NewMat()
	if !h.capture.Read(&mat) {
		mat.Close()
		return Frame{}, false
	}
	frame := NewFrame(mat)
	if !frame.IsValid() {
		mat.Close()
		return Frame{}, true
	}
	return frame, true
}

func (h *openCVHandle) Rate() float64 {
	return h.capture.Get(gocv.VideoCaptureFPS)
}

func (h *openCVHandle) Close() error {
	return h.capture.Close()
}
