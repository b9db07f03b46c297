package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RawRecord is the per-photo output of the external recognition step.
// Field names follow the recognition interchange format (camelCase);
// "subphase" accepts the legacy "detail" key on input.
type RawRecord struct {
	FileName          string   `json:"fileName"`
	FilePath          string   `json:"filePath"`
	Date              string   `json:"date"`
	WorkType          string   `json:"workType"`
	Variety           string   `json:"variety"`
	Subphase          string   `json:"subphase"`
	Station           string   `json:"station"`
	Remarks           string   `json:"remarks"`
	RemarksCandidates []string `json:"remarksCandidates"`
	Description       string   `json:"description"`
	SceneDescription  string   `json:"sceneDescription"`
	HasBoard          bool     `json:"hasBoard"`
	DetectedText      string   `json:"detectedText"`
	Measurements      string   `json:"measurements"`
	PhotoCategory     string   `json:"photoCategory"`
	Reasoning         string   `json:"reasoning"`
}

// rawRecordAlias mirrors RawRecord for custom decoding without recursion.
type rawRecordAlias RawRecord

// UnmarshalJSON maps the legacy "detail" key onto Subphase when the
// canonical "subphase" key is absent.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		rawRecordAlias
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = RawRecord(aux.rawRecordAlias)
	if r.Subphase == "" && aux.Detail != "" {
		r.Subphase = aux.Detail
	}
	return nil
}

// ClassifiedRecord is a RawRecord whose category path has been resolved
// against a hierarchy master. On a match the four path fields hold the
// canonical ancestor path of the winning leaf; otherwise the raw guesses
// pass through unchanged and Provenance stays "raw".
type ClassifiedRecord struct {
	RawRecord
	Provenance Provenance `json:"provenance"`
}

// UnmarshalJSON decodes the record fields and the provenance flag.
// Without it the promoted RawRecord unmarshaler would swallow the
// whole payload and leave Provenance empty.
func (c *ClassifiedRecord) UnmarshalJSON(data []byte) error {
	if err := c.RawRecord.UnmarshalJSON(data); err != nil {
		return err
	}
	var aux struct {
		Provenance Provenance `json:"provenance"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Provenance = aux.Provenance
	return nil
}

// PhotoSet marks a contiguous run of classified records believed to
// document the same physical measurement event. Indices refer to the
// batch the set was derived from; End is exclusive. BoardIndex is -1
// when no single record carries the board.
type PhotoSet struct {
	Start      int  `json:"start"`
	End        int  `json:"end"`
	BoardIndex int  `json:"boardIndex"`
	Ambiguous  bool `json:"ambiguous"`
}

// Size returns the number of records in the set.
func (s PhotoSet) Size() int {
	return s.End - s.Start
}

// Correction records a single field rewrite applied during
// normalization, kept for audit alongside the run. Index is the
// record's position in the batch; corrections target the index, not
// the file name, so duplicate file names cannot misdirect a rewrite.
type Correction struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	RunID     uuid.UUID       `db:"run_id" json:"runId"`
	Index     int             `db:"record_index" json:"recordIndex"`
	FileName  string          `db:"file_name" json:"fileName"`
	Field     CorrectionField `db:"field" json:"field"`
	Original  string          `db:"original_value" json:"original"`
	Corrected string          `db:"corrected_value" json:"corrected"`
	Reason    string          `db:"reason" json:"reason"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// Run represents one execution of the classification pipeline. Source
// is the photo location the run was started from (a local folder path
// or an s3:// prefix).
type Run struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Status          RunStatus  `db:"status" json:"status"`
	Source          string     `db:"source" json:"source"`
	MasterName      string     `db:"master_name" json:"masterName"`
	Title           string     `db:"title" json:"title"`
	PhotosPerPage   int        `db:"photos_per_page" json:"photosPerPage"`
	RecordCount     int        `db:"record_count" json:"recordCount"`
	MatchedCount    int        `db:"matched_count" json:"matchedCount"`
	UnmatchedCount  int        `db:"unmatched_count" json:"unmatchedCount"`
	AmbiguousSets   int        `db:"ambiguous_sets" json:"ambiguousSets"`
	CorrectionCount int        `db:"correction_count" json:"correctionCount"`
	ErrorMessage    string     `db:"error_message" json:"errorMessage"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
	CompletedAt     *time.Time `db:"completed_at" json:"completedAt"`
}

// RecordEntry is the persisted form of a classified record. The most
// frequently queried fields are lifted into columns; Payload holds the
// full ClassifiedRecord JSON.
type RecordEntry struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	RunID      uuid.UUID       `db:"run_id" json:"runId"`
	Seq        int             `db:"seq" json:"seq"`
	FileName   string          `db:"file_name" json:"fileName"`
	WorkType   string          `db:"work_type" json:"workType"`
	Variety    string          `db:"variety" json:"variety"`
	Subphase   string          `db:"subphase" json:"subphase"`
	Station    string          `db:"station" json:"station"`
	Provenance Provenance      `db:"provenance" json:"provenance"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Artifact stores metadata about a rendered output (PDF, workbook,
// CSV or JSON export) uploaded to object storage.
type Artifact struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	RunID       uuid.UUID    `db:"run_id" json:"runId"`
	Kind        ArtifactKind `db:"kind" json:"kind"`
	FileName    string       `db:"file_name" json:"fileName"`
	ContentType string       `db:"content_type" json:"contentType"`
	FileSize    int64        `db:"file_size" json:"fileSize"`
	S3Bucket    string       `db:"s3_bucket" json:"s3Bucket"`
	S3Key       string       `db:"s3_key" json:"s3Key"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

// Master stores an uploaded hierarchy master source together with the
// format needed to parse it again.
type Master struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Format    MasterFormat `db:"format" json:"format"`
	Content   []byte       `db:"content" json:"-"`
	LeafCount int          `db:"leaf_count" json:"leafCount"`
	IsActive  bool         `db:"is_active" json:"isActive"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}
