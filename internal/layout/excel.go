package layout

import "math"

// Spreadsheet-side geometry. Column widths are in Excel width units,
// row heights in points. The offset and per-column pixel factors come
// from how Excel itself maps width units to pixels at 100% zoom.
const (
	ExcelScale = 1.1

	PhotoRows    = 10
	GapRows      = 1
	RowsPerBlock = PhotoRows + GapRows
	RowHeightPt  = 27.0

	PhotoColWidth = 56.1
	LabelColWidth = 11.0
	ValueColWidth = 28.6

	PtPerExcelCol    = 5.3
	PxPerExcelCol    = 7.1
	ExcelColOffsetPx = 5.0

	PxPerPt = 96.0 / 72.0
)

// ExcelGrid is the geometry of one photo block in the spreadsheet
// rendering: a merged photo area in column A spanning PhotoRows rows,
// label and value columns beside it, and one gap row between blocks.
type ExcelGrid struct {
	RowsPerBlock  int
	PhotoRows     int
	RowHeightPt   float64
	ColAWidth     float64
	ColBWidth     float64
	ColCWidth     float64
	PhotoWidthPt  float64
	PhotoHeightPt float64
	InfoWidthPt   float64
}

// GridFor returns the grid for a density. Both densities share the
// same row design; only the photo height differs.
func GridFor(photosPerPage int) ExcelGrid {
	photoHeight := MMToPt(PhotoHeightThreeUpMM)
	if photosPerPage == 2 {
		photoHeight = MMToPt(PhotoHeightTwoUpMM)
	}
	return ExcelGrid{
		RowsPerBlock:  RowsPerBlock,
		PhotoRows:     PhotoRows,
		RowHeightPt:   RowHeightPt,
		ColAWidth:     PhotoColWidth,
		ColBWidth:     LabelColWidth,
		ColCWidth:     ValueColWidth,
		PhotoWidthPt:  MMToPt(PhotoWidthMM),
		PhotoHeightPt: photoHeight,
		InfoWidthPt:   MMToPt(InfoWidthMM),
	}
}

// PtToExcelCol converts a point size to Excel column-width units.
func PtToExcelCol(pt float64) float64 { return math.Round(pt / PtPerExcelCol) }

// ExcelColToPt converts Excel column-width units back to points.
func ExcelColToPt(units float64) float64 { return math.Round(units * PtPerExcelCol) }

// PxToExcelWidth converts a pixel size to Excel column-width units.
func PxToExcelWidth(px float64) float64 {
	return math.Round((px - ExcelColOffsetPx) / PxPerExcelCol)
}

// ExcelWidthToPx converts Excel column-width units to pixels.
func ExcelWidthToPx(units float64) float64 {
	return math.Round(units*PxPerExcelCol + ExcelColOffsetPx)
}

// PtToPx converts points to pixels at 96 DPI.
func PtToPx(pt float64) float64 { return pt * PxPerPt }

// PxToPt converts pixels at 96 DPI to points.
func PxToPt(px float64) float64 { return px / PxPerPt }
