package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"daicho/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// recordColumns defines the record export header row (12 columns).
var recordColumns = []string{
	"ファイル名",
	"日時",
	"写真区分",
	"工種",
	"種別",
	"作業段階",
	"測点",
	"備考",
	"測定値",
	"黒板",
	"黒板テキスト",
	"判定",
}

// correctionColumns defines the correction export header row.
var correctionColumns = []string{
	"ファイル名",
	"項目",
	"修正前",
	"修正後",
	"理由",
}

// RecordWriter wraps csv.Writer for exporting classified records.
type RecordWriter struct {
	csv *csv.Writer
}

// NewRecordWriter creates a RecordWriter that writes CSV to w.
func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the record header row.
func (w *RecordWriter) WriteHeader() error {
	return w.csv.Write(recordColumns)
}

// WriteRecords converts a batch of records to CSV rows and writes them.
func (w *RecordWriter) WriteRecords(records []domain.ClassifiedRecord) error {
	for i := range records {
		if err := w.csv.Write(recordToRow(&records[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *RecordWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *RecordWriter) Error() error {
	return w.csv.Error()
}

func recordToRow(r *domain.ClassifiedRecord) []string {
	row := make([]string, len(recordColumns))
	row[0] = r.FileName
	row[1] = r.Date
	row[2] = r.PhotoCategory
	row[3] = r.WorkType
	row[4] = r.Variety
	row[5] = r.Subphase
	row[6] = r.Station
	row[7] = r.Remarks
	row[8] = r.Measurements
	row[9] = formatBoard(r.HasBoard)
	row[10] = r.DetectedText
	row[11] = string(r.Provenance)
	return row
}

func formatBoard(hasBoard bool) string {
	if hasBoard {
		return "あり"
	}
	return "なし"
}

// CorrectionWriter wraps csv.Writer for exporting normalization
// corrections.
type CorrectionWriter struct {
	csv *csv.Writer
}

// NewCorrectionWriter creates a CorrectionWriter that writes CSV to w.
func NewCorrectionWriter(w io.Writer) *CorrectionWriter {
	return &CorrectionWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the correction header row.
func (w *CorrectionWriter) WriteHeader() error {
	return w.csv.Write(correctionColumns)
}

// WriteCorrections converts corrections to CSV rows and writes them.
// The field column carries the Japanese display label.
func (w *CorrectionWriter) WriteCorrections(corrections []domain.Correction) error {
	for i := range corrections {
		c := &corrections[i]
		row := []string{c.FileName, c.Field.Label(), c.Original, c.Corrected, c.Reason}
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CorrectionWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CorrectionWriter) Error() error {
	return w.csv.Error()
}

// ExportRecords writes the full record export to w: BOM, header, rows.
func ExportRecords(w io.Writer, records []domain.ClassifiedRecord) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	rw := NewRecordWriter(w)
	if err := rw.WriteHeader(); err != nil {
		return err
	}
	if err := rw.WriteRecords(records); err != nil {
		return err
	}
	rw.Flush()
	return rw.Error()
}

// ExportCorrections writes the full correction export to w: BOM,
// header, rows.
func ExportCorrections(w io.Writer, corrections []domain.Correction) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := NewCorrectionWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteCorrections(corrections); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a ledger title for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses
// consecutive underscores, and truncates to 100 chars. A title with no
// ASCII-safe characters left, common for fully Japanese titles, falls
// back to "photo_ledger".
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "photo_ledger"
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_title}_{YYYY-MM-DD}.csv
func BuildFilename(title string) string {
	sanitized := SanitizeFilename(title)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
