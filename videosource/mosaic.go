package videosource

import (
	"image"

	"gocv.io/x/gocv"
)

// Mosaic composes frames into a fixed cell grid for a combined view.
// Cells are tiled row major in the order given, so registry order gives a
// stable layout.
type Mosaic struct {
	Cols       int
	CellWidth  int
	CellHeight int
}

// Mosaic defaults
const (
	DefaultMosaicCols       = 2
	DefaultMosaicCellWidth  = 320
	DefaultMosaicCellHeight = 240
)

// NewMosaic creates a new Mosaic, defaulting non-positive dimensions
func NewMosaic(cols int, cellWidth int, cellHeight int) *Mosaic {
	if cols <= 0 {
		cols = DefaultMosaicCols
	}
	if cellWidth <= 0 {
		cellWidth = DefaultMosaicCellWidth
	}
	if cellHeight <= 0 {
		cellHeight = DefaultMosaicCellHeight
	}
	return &Mosaic{
		Cols:       cols,
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
	}
}

// Compose scales each frame into a cell and tiles them, padding the last
// row with blank cells to a full rectangle. Fewer frames than Cols narrow
// the grid to the frame count, so a lone source fills the whole canvas
// instead of sharing it with blanks. The input frames are neither modified
// nor closed. Returns an invalid Frame when frames is empty.
func (m *Mosaic) Compose(frames []Frame) Frame {
	if len(frames) == 0 {
		return Frame{}
	}
	cols := m.Cols
	if len(frames) < cols {
		cols = len(frames)
	}
	rows := (len(frames) + cols - 1) / cols
	cells := make([]gocv.Mat, 0, rows*cols)
	for _, frame := range frames {
		if !frame.IsValid() {
			cells = append(cells, m.blankCell())
			continue
		}
		cell := gocv.NewMat()
		gocv.Resize(frame.Mat, &cell, image.Pt(m.CellWidth, m.CellHeight), 0, 0, gocv.InterpolationArea)
		cells = append(cells, cell)
	}
	for len(cells) < rows*cols {
		cells = append(cells, m.blankCell())
	}
	rowMats := make([]gocv.Mat, 0, rows)
	for r := 0; r < rows; r++ {
		rowMat := cells[r*cols]
		for c := 1; c < cols; c++ {
			combined := gocv.NewMat()
			gocv.Hconcat(rowMat, cells[r*cols+c], &combined)
			rowMat.Close()
			cells[r*cols+c].Close()
			rowMat = combined
		}
		rowMats = append(rowMats, rowMat)
	}
	grid := rowMats[0]
	for r := 1; r < rows; r++ {
		combined := gocv.NewMat()
		gocv.Vconcat(grid, rowMats[r], &combined)
		grid.Close()
		rowMats[r].Close()
		grid = combined
	}
	return NewFrame(grid)
}

func (m *Mosaic) blankCell() gocv.Mat {
	return gocv.Zeros(m.CellHeight, m.CellWidth, gocv.MatTypeCV8UC3)
}
