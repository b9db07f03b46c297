package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageDimensions(t *testing.T) {
	assert.InDelta(t, 190.0, UsableWidthMM, 1e-9)
	assert.InDelta(t, 123.5, PhotoWidthMM, 1e-9)
	assert.InDelta(t, 66.5, InfoWidthMM, 1e-9)
	assert.InDelta(t, UsableWidthMM, PhotoWidthMM+InfoWidthMM, 1e-9)

	assert.InDelta(t, 85.67, PhotoHeightThreeUpMM, 0.01)
	assert.InDelta(t, 133.5, PhotoHeightTwoUpMM, 1e-9)
}

func TestThreeUpConfig(t *testing.T) {
	cfg := ThreeUp()

	assert.Equal(t, 3, cfg.PhotosPerPage)
	assert.InDelta(t, 85.67, cfg.PhotoHeightMM, 0.01)
	assert.Equal(t, DefaultFontSizePt, cfg.FontSizePt)
	assert.Len(t, cfg.Fields, 8)
}

func TestTwoUpConfig(t *testing.T) {
	cfg := TwoUp()

	assert.Equal(t, 2, cfg.PhotosPerPage)
	assert.InDelta(t, 133.5, cfg.PhotoHeightMM, 1e-9)
	assert.Len(t, cfg.Fields, 2)
}

func TestForPhotosPerPage(t *testing.T) {
	assert.Equal(t, 2, ForPhotosPerPage(2).PhotosPerPage)
	assert.Equal(t, 3, ForPhotosPerPage(3).PhotosPerPage)
	assert.Equal(t, 3, ForPhotosPerPage(0).PhotosPerPage)
	assert.Equal(t, 3, ForPhotosPerPage(5).PhotosPerPage)
}

func TestDefaultFields(t *testing.T) {
	fields := DefaultFields()
	require.Len(t, fields, 8)

	assert.Equal(t, FieldDef{Key: "date", Label: "日時", RowSpan: 1}, fields[0])
	assert.Equal(t, FieldDef{Key: "measurements", Label: "測定値", RowSpan: 3}, fields[7])

	rowUnits := 0
	for _, f := range fields {
		rowUnits += f.RowSpan
	}
	assert.Equal(t, PhotoRows, rowUnits)
}

func TestFieldsForTwoUp(t *testing.T) {
	fields := FieldsFor(2)
	require.Len(t, fields, 2)
	assert.Equal(t, "station", fields[0].Key)
	assert.Equal(t, "測点", fields[0].Label)
	assert.Equal(t, "remarks", fields[1].Key)
	assert.Equal(t, "備考", fields[1].Label)
}

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 28.35, MMToPt(10), 0.01)
	assert.InDelta(t, 57.0, PtToMM(MMToPt(57)), 1e-9)

	assert.InDelta(t, 10.0, PtToExcelCol(53), 1e-9)
	assert.InDelta(t, 53.0, ExcelColToPt(10), 1e-9)

	assert.InDelta(t, 10.0, PxToExcelWidth(76), 1e-9)
	assert.InDelta(t, 76.0, ExcelWidthToPx(10), 1e-9)

	assert.InDelta(t, 32.0, PtToPx(24), 1e-9)
	assert.InDelta(t, 24.0, PxToPt(32), 1e-9)
}

func TestExcelGrid(t *testing.T) {
	grid := GridFor(3)

	assert.Equal(t, 11, grid.RowsPerBlock)
	assert.Equal(t, 10, grid.PhotoRows)
	assert.InDelta(t, 27.0, grid.RowHeightPt, 1e-9)
	assert.InDelta(t, 56.1, grid.ColAWidth, 1e-9)
	assert.InDelta(t, 11.0, grid.ColBWidth, 1e-9)
	assert.InDelta(t, 28.6, grid.ColCWidth, 1e-9)
	assert.InDelta(t, MMToPt(PhotoHeightThreeUpMM), grid.PhotoHeightPt, 1e-9)
	assert.InDelta(t, MMToPt(PhotoWidthMM), grid.PhotoWidthPt, 1e-9)

	twoUp := GridFor(2)
	assert.InDelta(t, MMToPt(PhotoHeightTwoUpMM), twoUp.PhotoHeightPt, 1e-9)
	assert.Equal(t, grid.RowsPerBlock, twoUp.RowsPerBlock)
}
