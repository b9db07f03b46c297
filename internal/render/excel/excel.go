// Package excel renders a placement plan into a photo-ledger workbook:
// one worksheet per page, each photo as an 11-row block with a merged
// image cell in column A and label/value columns beside it.
package excel

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"daicho/internal/domain"
	"daicho/internal/layout"
)

// pictureScale keeps typical site photos inside the merged photo cell.
const pictureScale = 0.36

// Image is the raw content of one photo. Extension carries the dot,
// e.g. ".jpg".
type Image struct {
	Data      []byte
	Extension string
}

// ImageLoader resolves a record's file path to photo bytes. A nil
// image or an error leaves the photo cell empty; rendering continues.
type ImageLoader func(filePath string) (*Image, error)

// Renderer writes placement plans as xlsx workbooks. A nil Images
// loader produces workbooks without embedded photos.
type Renderer struct {
	Images ImageLoader
}

// Render produces the workbook bytes for plan.
func (r *Renderer) Render(plan *layout.PlacementPlan) ([]byte, error) {
	if plan == nil || len(plan.Pages) == 0 {
		return nil, fmt.Errorf("render workbook: %w", domain.ErrEmptyBatch)
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	for i, page := range plan.Pages {
		name := strconv.Itoa(page.Number)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("name sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}
		if err := r.renderSheet(f, name, page, layout.GridFor(plan.Config.PhotosPerPage), styles); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetStyles struct {
	label int
	value int
	photo int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	s.label, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 9, Color: "555555"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F5F5F5"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder(borderHair, "AAAAAA"),
	})
	if err != nil {
		return s, fmt.Errorf("label style: %w", err)
	}

	s.value, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		Border:    cellBorder(borderHair, "CCCCCC"),
	})
	if err != nil {
		return s, fmt.Errorf("value style: %w", err)
	}

	s.photo, err = f.NewStyle(&excelize.Style{
		Border: cellBorder(borderThin, "CCCCCC"),
	})
	if err != nil {
		return s, fmt.Errorf("photo style: %w", err)
	}
	return s, nil
}

const (
	borderThin = 1
	borderHair = 7
)

func cellBorder(style int, color string) []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		borders = append(borders, excelize.Border{Type: side, Color: color, Style: style})
	}
	return borders
}

func (r *Renderer) renderSheet(f *excelize.File, sheet string, page layout.Page, grid layout.ExcelGrid, styles sheetStyles) error {
	widths := []struct {
		col   string
		width float64
	}{
		{"A", grid.ColAWidth},
		{"B", grid.ColBWidth},
		{"C", grid.ColCWidth},
	}
	for _, w := range widths {
		if err := f.SetColWidth(sheet, w.col, w.col, w.width); err != nil {
			return fmt.Errorf("sheet %s column %s width: %w", sheet, w.col, err)
		}
	}

	zoom := layout.ExcelScale * 100
	if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{ZoomScale: &zoom}); err != nil {
		return fmt.Errorf("sheet %s view: %w", sheet, err)
	}

	for _, cell := range page.Cells {
		if err := r.renderBlock(f, sheet, cell, grid, styles); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderBlock(f *excelize.File, sheet string, cell layout.Cell, grid layout.ExcelGrid, styles sheetStyles) error {
	startRow := cell.Slot*grid.RowsPerBlock + 1

	for row := startRow; row < startRow+grid.RowsPerBlock; row++ {
		if err := f.SetRowHeight(sheet, row, grid.RowHeightPt); err != nil {
			return fmt.Errorf("sheet %s row %d height: %w", sheet, row, err)
		}
	}

	photoTop, err := excelize.CoordinatesToCellName(1, startRow)
	if err != nil {
		return fmt.Errorf("photo cell: %w", err)
	}
	photoBottom, err := excelize.CoordinatesToCellName(1, startRow+grid.PhotoRows-1)
	if err != nil {
		return fmt.Errorf("photo cell: %w", err)
	}
	if err := f.SetCellStyle(sheet, photoTop, photoBottom, styles.photo); err != nil {
		return fmt.Errorf("photo cell style: %w", err)
	}
	if err := f.MergeCell(sheet, photoTop, photoBottom); err != nil {
		return fmt.Errorf("merge photo cell: %w", err)
	}

	if err := r.embedPhoto(f, sheet, photoTop, cell.Record.FilePath); err != nil {
		return err
	}

	fieldRow := startRow
	for _, field := range cell.Fields {
		value := layout.FieldValue(&cell.Record, field.Key)
		if value == "" {
			value = "-"
		}
		if err := writeSpan(f, sheet, 2, fieldRow, field.RowSpan, field.Label, styles.label); err != nil {
			return err
		}
		if err := writeSpan(f, sheet, 3, fieldRow, field.RowSpan, value, styles.value); err != nil {
			return err
		}
		fieldRow += field.RowSpan
	}
	return nil
}

// writeSpan writes one label or value cell, merging downward when the
// field spans multiple rows.
func writeSpan(f *excelize.File, sheet string, col, row, rowSpan int, value string, style int) error {
	top, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("field cell: %w", err)
	}
	bottom := top
	if rowSpan > 1 {
		if bottom, err = excelize.CoordinatesToCellName(col, row+rowSpan-1); err != nil {
			return fmt.Errorf("field cell: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, top, bottom, style); err != nil {
		return fmt.Errorf("cell %s style: %w", top, err)
	}
	if rowSpan > 1 {
		if err := f.MergeCell(sheet, top, bottom); err != nil {
			return fmt.Errorf("merge %s:%s: %w", top, bottom, err)
		}
	}
	if err := f.SetCellStr(sheet, top, value); err != nil {
		return fmt.Errorf("cell %s value: %w", top, err)
	}
	return nil
}

func (r *Renderer) embedPhoto(f *excelize.File, sheet, anchor, filePath string) error {
	if r.Images == nil {
		return nil
	}
	img, err := r.Images(filePath)
	if err != nil || img == nil {
		// A missing photo leaves the cell framed but empty.
		return nil
	}
	pic := &excelize.Picture{
		Extension: img.Extension,
		File:      img.Data,
		Format: &excelize.GraphicOptions{
			ScaleX:      pictureScale,
			ScaleY:      pictureScale,
			Positioning: "absolute",
		},
	}
	if err := f.AddPictureFromBytes(sheet, anchor, pic); err != nil {
		return fmt.Errorf("embed photo %q: %w", filePath, err)
	}
	return nil
}
