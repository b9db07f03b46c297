package domain

// Provenance marks how a record's category path was resolved.
type Provenance string

const (
	// ProvenanceMaster means the path was resolved by a hierarchy
	// master match.
	ProvenanceMaster Provenance = "master"
	// ProvenanceRaw means the raw recognition guesses passed through
	// unchanged, either because no master was supplied or no leaf
	// pattern matched.
	ProvenanceRaw Provenance = "raw"
)

// RunStatus represents the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// ArtifactKind identifies the format of a rendered output.
type ArtifactKind string

const (
	ArtifactPDF   ArtifactKind = "pdf"
	ArtifactExcel ArtifactKind = "xlsx"
	ArtifactCSV   ArtifactKind = "csv"
	ArtifactJSON  ArtifactKind = "json"
)

// ArtifactContentTypes maps ArtifactKind to its MIME content type.
var ArtifactContentTypes = map[ArtifactKind]string{
	ArtifactPDF:   "application/pdf",
	ArtifactExcel: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ArtifactCSV:   "text/csv",
	ArtifactJSON:  "application/json",
}

// MasterFormat identifies the source format of a hierarchy master.
type MasterFormat string

const (
	MasterFormatJSON MasterFormat = "json"
	MasterFormatCSV  MasterFormat = "csv"
	MasterFormatXLSX MasterFormat = "xlsx"
)

// MasterFormatExtensions maps file extensions (without dot) to MasterFormat.
var MasterFormatExtensions = map[string]MasterFormat{
	"json": MasterFormatJSON,
	"csv":  MasterFormatCSV,
	"xlsx": MasterFormatXLSX,
}

// CorrectionField names the record field a normalization correction
// applies to.
type CorrectionField string

const (
	CorrectionWorkType     CorrectionField = "workType"
	CorrectionVariety      CorrectionField = "variety"
	CorrectionSubphase     CorrectionField = "subphase"
	CorrectionStation      CorrectionField = "station"
	CorrectionMeasurements CorrectionField = "measurements"
	CorrectionDetectedText CorrectionField = "detectedText"
)

// correctionLabels holds the display names used in correction reasons
// and rendered reports.
var correctionLabels = map[CorrectionField]string{
	CorrectionWorkType:     "工種",
	CorrectionVariety:      "種別",
	CorrectionSubphase:     "作業段階",
	CorrectionStation:      "測点",
	CorrectionMeasurements: "計測値",
	CorrectionDetectedText: "黒板テキスト",
}

// Label returns the Japanese display name for the field.
func (f CorrectionField) Label() string {
	if l, ok := correctionLabels[f]; ok {
		return l
	}
	return string(f)
}

// PhotoFileType represents the accepted photo file types.
type PhotoFileType string

const (
	PhotoFileJPG PhotoFileType = "jpg"
	PhotoFilePNG PhotoFileType = "png"
)

// PhotoExtensions maps file extensions (without dot) to PhotoFileType.
var PhotoExtensions = map[string]PhotoFileType{
	"jpg":  PhotoFileJPG,
	"jpeg": PhotoFileJPG,
	"png":  PhotoFilePNG,
}

// PhotoContentTypes maps PhotoFileType to its MIME content type.
var PhotoContentTypes = map[PhotoFileType]string{
	PhotoFileJPG: "image/jpeg",
	PhotoFilePNG: "image/png",
}
