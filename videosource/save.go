package videosource

import (
	"fmt"
	"path"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SaveFrame writes frame as a jpeg under saveDirectory and returns the
// written path. The frame is not closed.
func SaveFrame(frame Frame, t time.Time, saveDirectory string, jpegQuality int, name string) (string, error) {
	if !frame.IsValid() {
		return "", errors.New("invalid frame")
	}
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 100
	}
	savePath := GetFrameFilename(t, saveDirectory, name)
	jpgParams := []int{gocv.IMWriteJpegQuality, jpegQuality}
	if ok := gocv.IMWriteWithParams(savePath, frame.Mat, jpgParams); !ok {
		return "", errors.Errorf("could not write %s", savePath)
	}
	return savePath, nil
}

// GetFrameFilename returns a timestamped jpeg filename for name
func GetFrameFilename(t time.Time, saveDirectory string, name string) string {
	return GetBaseFilename(t, saveDirectory, name) + ".jpg"
}

// GetBaseFilename returns a formatted base filename with the date time
func GetBaseFilename(t time.Time, saveDirectory string, name string) string {
	filename := path.Join(saveDirectory, name)
	filename += "_" + fmt.Sprintf("%d_%02d_%02d_%02d_%02d_%02d_%09d",
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
	return filename
}
