package layout

import "daicho/internal/domain"

// Rect is a placement rectangle in millimeters. X and Y are measured
// from the page's top-left corner with Y growing downward.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FieldLine is one laid-out info-panel field. Lines holds the wrapped
// value, at most RowSpan entries; successive lines sit LineStep below
// each other starting at the Y baseline.
type FieldLine struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Lines    []string `json:"lines"`
	RowSpan  int      `json:"rowSpan"`
	LabelX   float64  `json:"labelX"`
	ValueX   float64  `json:"valueX"`
	Y        float64  `json:"y"`
	LineStep float64  `json:"lineStep"`
}

// Cell places one record on a page: the photo rectangle, the info
// panel beside it, the panel's field lines and the baseline of the
// file-name caption at the panel's bottom edge.
type Cell struct {
	Record     domain.ClassifiedRecord `json:"record"`
	Slot       int                     `json:"slot"`
	PhotoRect  Rect                    `json:"photoRect"`
	InfoRect   Rect                    `json:"infoRect"`
	Fields     []FieldLine             `json:"fields"`
	FileLabelX float64                 `json:"fileLabelX"`
	FileLabelY float64                 `json:"fileLabelY"`
}

// Page is one output page. Number is 1-based.
type Page struct {
	Number int    `json:"number"`
	Cells  []Cell `json:"cells"`
}

// PlacementPlan is the complete, renderer-independent layout of a
// batch. It embeds the records it places, so it is the only artifact
// a renderer needs.
type PlacementPlan struct {
	Config Config `json:"config"`
	Pages  []Page `json:"pages"`
}

// RecordCount returns the number of placed records.
func (p *PlacementPlan) RecordCount() int {
	n := 0
	for _, pg := range p.Pages {
		n += len(pg.Cells)
	}
	return n
}

// Plan lays records out into pages of PhotosPerPage cells, preserving
// input order. It is pure: the same records and config always produce
// the same plan, and no I/O happens here. Values that do not fit
// their panel are wrapped and truncated, and field lines that would
// fall below the panel are dropped, so planning never fails.
func Plan(records []domain.ClassifiedRecord, cfg Config) *PlacementPlan {
	cfg = cfg.normalized()
	plan := &PlacementPlan{Config: cfg}

	usable := cfg.PageWidthMM - 2*cfg.MarginMM
	photoW := usable * cfg.PhotoRatio
	infoW := usable - photoW

	gap := PtToMM(photoInfoGapPt)
	header := PtToMM(headerHeightPt)
	rowH := cfg.PhotoHeightMM + 2*gap
	firstLine := PtToMM(firstFieldPt)
	step := PtToMM(fieldLineStepPt)
	labelInset := PtToMM(labelInsetPt)
	valueInset := PtToMM(valueInsetPt)
	valueWidth := infoW - valueInset - PtToMM(valueRightPadPt)

	for start := 0; start < len(records); start += cfg.PhotosPerPage {
		end := min(start+cfg.PhotosPerPage, len(records))
		page := Page{Number: len(plan.Pages) + 1}

		for slot, idx := 0, start; idx < end; slot, idx = slot+1, idx+1 {
			top := cfg.MarginMM + header + float64(slot)*rowH + gap
			photoRect := Rect{X: cfg.MarginMM, Y: top, Width: photoW, Height: cfg.PhotoHeightMM}
			infoRect := Rect{X: cfg.MarginMM + photoW + gap, Y: top, Width: infoW, Height: cfg.PhotoHeightMM}

			cell := Cell{
				Record:     records[idx],
				Slot:       slot,
				PhotoRect:  photoRect,
				InfoRect:   infoRect,
				FileLabelX: infoRect.X + labelInset,
				FileLabelY: top + cfg.PhotoHeightMM - gap,
			}

			offset := 0
			for _, f := range cfg.Fields {
				y := top + firstLine + float64(offset)*step
				offset += f.RowSpan
				if y >= cell.FileLabelY {
					// Below the panel; dropping beats overlapping
					// the file-name caption.
					continue
				}
				value := FieldValue(&records[idx], f.Key)
				if value == "" {
					value = "-"
				}
				cell.Fields = append(cell.Fields, FieldLine{
					Key:      f.Key,
					Label:    f.Label,
					Lines:    WrapToWidthMM(value, valueWidth, cfg.FontSizePt, f.RowSpan),
					RowSpan:  f.RowSpan,
					LabelX:   infoRect.X + labelInset,
					ValueX:   infoRect.X + valueInset,
					Y:        y,
					LineStep: step,
				})
			}
			page.Cells = append(page.Cells, cell)
		}
		plan.Pages = append(plan.Pages, page)
	}
	return plan
}

// FieldValue resolves a field key against a record. The legacy
// "detail" key reads Subphase; unknown keys resolve to "".
func FieldValue(r *domain.ClassifiedRecord, key string) string {
	switch key {
	case "date":
		return r.Date
	case "photoCategory":
		return r.PhotoCategory
	case "workType":
		return r.WorkType
	case "variety":
		return r.Variety
	case "subphase", "detail":
		return r.Subphase
	case "station":
		return r.Station
	case "remarks":
		return r.Remarks
	case "measurements":
		return r.Measurements
	}
	return ""
}
