// Package layout is the deterministic placement engine shared by the
// document and spreadsheet renderers. Millimeters from the page's
// top-left corner are the source of truth; renderers convert to their
// native units at the edge, so a plan renders to the same geometry in
// both output formats.
package layout

// A4 page geometry in millimeters.
const (
	A4WidthMM  = 210.0
	A4HeightMM = 297.0
	MarginMM   = 10.0
	PhotoGapMM = 10.0

	ImageRatio = 0.65
	InfoRatio  = 0.35

	UsableWidthMM = A4WidthMM - 2*MarginMM
	PhotoWidthMM  = UsableWidthMM * ImageRatio
	InfoWidthMM   = UsableWidthMM * InfoRatio

	// Fixed photo heights per density, derived from the usable page
	// height so a page always carries a uniform grid.
	PhotoHeightThreeUpMM = (A4HeightMM - 2*MarginMM - 2*PhotoGapMM) / 3
	PhotoHeightTwoUpMM   = (A4HeightMM - 2*MarginMM - PhotoGapMM) / 2
)

// Info-panel typography in points.
const (
	DefaultFontSizePt = 12.0

	headerHeightPt  = 40.0
	photoInfoGapPt  = 5.0
	firstFieldPt    = 15.0
	fieldLineStepPt = 18.0
	labelInsetPt    = 5.0
	valueInsetPt    = 45.0
	valueRightPadPt = 5.0
)

// PtPerMM converts millimeters to PostScript points.
const PtPerMM = 72.0 / 25.4

// MMToPt converts millimeters to points.
func MMToPt(mm float64) float64 { return mm * PtPerMM }

// PtToMM converts points to millimeters.
func PtToMM(pt float64) float64 { return pt / PtPerMM }

// FieldDef describes one info-panel field: its record key, display
// label and how many row units its value occupies. Both renderers
// consume the same definitions, so labels and ordering always match.
type FieldDef struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	RowSpan int    `json:"rowSpan"`
}

// DefaultFields is the full info-panel field list in display order.
func DefaultFields() []FieldDef {
	return []FieldDef{
		{Key: "date", Label: "日時", RowSpan: 1},
		{Key: "photoCategory", Label: "区分", RowSpan: 1},
		{Key: "workType", Label: "工種", RowSpan: 1},
		{Key: "variety", Label: "種別", RowSpan: 1},
		{Key: "subphase", Label: "作業段階", RowSpan: 1},
		{Key: "station", Label: "測点", RowSpan: 1},
		{Key: "remarks", Label: "備考", RowSpan: 1},
		{Key: "measurements", Label: "測定値", RowSpan: 3},
	}
}

// FieldsFor returns the per-density field subset: two photos per page
// render only station and remarks, three render the full list.
func FieldsFor(photosPerPage int) []FieldDef {
	if photosPerPage == 2 {
		return []FieldDef{
			{Key: "station", Label: "測点", RowSpan: 1},
			{Key: "remarks", Label: "備考", RowSpan: 1},
		}
	}
	return DefaultFields()
}

// Config parameterizes a placement plan. The zero value of any field
// falls back to the A4 defaults, so a caller may set only
// PhotosPerPage. Config is plain data and serializes to JSON so both
// renderer collaborators can be handed the identical configuration.
type Config struct {
	PageWidthMM   float64    `json:"pageWidthMm"`
	PageHeightMM  float64    `json:"pageHeightMm"`
	MarginMM      float64    `json:"marginMm"`
	GapMM         float64    `json:"gapMm"`
	PhotoRatio    float64    `json:"photoRatio"`
	PhotosPerPage int        `json:"photosPerPage"`
	PhotoHeightMM float64    `json:"photoHeightMm"`
	FontSizePt    float64    `json:"fontSizePt"`
	Fields        []FieldDef `json:"fields"`
}

// ThreeUp returns the standard three-photo A4 configuration.
func ThreeUp() Config {
	return Config{
		PageWidthMM:   A4WidthMM,
		PageHeightMM:  A4HeightMM,
		MarginMM:      MarginMM,
		GapMM:         PhotoGapMM,
		PhotoRatio:    ImageRatio,
		PhotosPerPage: 3,
		PhotoHeightMM: PhotoHeightThreeUpMM,
		FontSizePt:    DefaultFontSizePt,
		Fields:        FieldsFor(3),
	}
}

// TwoUp returns the two-photo A4 configuration.
func TwoUp() Config {
	return Config{
		PageWidthMM:   A4WidthMM,
		PageHeightMM:  A4HeightMM,
		MarginMM:      MarginMM,
		GapMM:         PhotoGapMM,
		PhotoRatio:    ImageRatio,
		PhotosPerPage: 2,
		PhotoHeightMM: PhotoHeightTwoUpMM,
		FontSizePt:    DefaultFontSizePt,
		Fields:        FieldsFor(2),
	}
}

// ForPhotosPerPage returns TwoUp for 2 and ThreeUp for anything else.
func ForPhotosPerPage(n int) Config {
	if n == 2 {
		return TwoUp()
	}
	return ThreeUp()
}

func (c Config) normalized() Config {
	if c.PhotosPerPage <= 0 {
		c.PhotosPerPage = 3
	} else if c.PhotosPerPage < 2 {
		c.PhotosPerPage = 2
	} else if c.PhotosPerPage > 3 {
		c.PhotosPerPage = 3
	}
	if c.PageWidthMM <= 0 {
		c.PageWidthMM = A4WidthMM
	}
	if c.PageHeightMM <= 0 {
		c.PageHeightMM = A4HeightMM
	}
	if c.MarginMM <= 0 {
		c.MarginMM = MarginMM
	}
	if c.GapMM <= 0 {
		c.GapMM = PhotoGapMM
	}
	if c.PhotoRatio <= 0 || c.PhotoRatio >= 1 {
		c.PhotoRatio = ImageRatio
	}
	if c.PhotoHeightMM <= 0 {
		if c.PhotosPerPage == 2 {
			c.PhotoHeightMM = (c.PageHeightMM - 2*c.MarginMM - c.GapMM) / 2
		} else {
			c.PhotoHeightMM = (c.PageHeightMM - 2*c.MarginMM - 2*c.GapMM) / 3
		}
	}
	if c.FontSizePt <= 0 {
		c.FontSizePt = DefaultFontSizePt
	}
	if len(c.Fields) == 0 {
		c.Fields = FieldsFor(c.PhotosPerPage)
	}
	return c
}
