package annotate

import (
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/DilanUni/security-video-detection/videosource"
)

func blackFrame() videosource.Frame {
	mat := gocv.Zeros(120, 160, gocv.MatTypeCV8UC3)
	frame := videosource.NewFrame(mat)
	frame.CreatedTime = time.Date(2021, 6, 15, 10, 30, 0, 0, time.UTC)
	return frame
}

func pixelSum(frame videosource.Frame) float64 {
	sum := frame.Mat.Sum()
	return sum.Val1 + sum.Val2 + sum.Val3
}

func TestTimestampLeavesInputUntouched(t *testing.T) {
	frame := blackFrame()
	defer frame.Close()

	annotated := Timestamp()(frame)
	defer annotated.Close()

	if !annotated.IsValid() {
		t.Fatalf("Annotated frame not valid\n")
	}
	if got := pixelSum(frame); got != 0 {
		t.Fatalf("Input frame modified, pixel sum %v\n", got)
	}
	if got := pixelSum(annotated); got == 0 {
		t.Fatalf("Timestamp drew nothing\n")
	}
}

func TestLabelDrawsText(t *testing.T) {
	frame := blackFrame()
	defer frame.Close()

	annotated := Label("Device 0")(frame)
	defer annotated.Close()

	if got := pixelSum(annotated); got == 0 {
		t.Fatalf("Label drew nothing\n")
	}
	if got := pixelSum(frame); got != 0 {
		t.Fatalf("Input frame modified, pixel sum %v\n", got)
	}

	empty := Label("")(frame)
	defer empty.Close()
	if got := pixelSum(empty); got != 0 {
		t.Fatalf("Empty label drew, pixel sum %v\n", got)
	}
}

func TestChainAppliesInOrder(t *testing.T) {
	frame := blackFrame()
	defer frame.Close()

	chained := Chain(Label("cam"), Timestamp())(frame)
	defer chained.Close()

	single := Label("cam")(frame)
	defer single.Close()

	if !chained.IsValid() {
		t.Fatalf("Chained frame not valid\n")
	}
	if pixelSum(chained) <= pixelSum(single) {
		t.Fatalf("Chain did not add the second annotation\n")
	}
}

func TestChainEmptyClones(t *testing.T) {
	frame := blackFrame()

	cloned := Chain()(frame)
	defer cloned.Close()

	frame.Close()
	if !cloned.IsValid() {
		t.Fatalf("Empty chain result shares the input buffer\n")
	}
}

func TestAnnotateInvalidFrame(t *testing.T) {
	annotated := Timestamp()(videosource.Frame{})
	if annotated.IsValid() {
		t.Fatalf("Annotating an invalid frame produced a valid one\n")
	}
}
