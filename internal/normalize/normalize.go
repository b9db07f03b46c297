// Package normalize reconciles field values across a classified batch.
//
// A pass runs in a fixed order: work-type, variety and subphase
// unification toward the most frequent spelling, then station
// unification, then measurement backfill from the board text, then
// photo-set detection with board-authoritative measurement
// propagation. Unification runs before set detection so that an OCR
// spelling variant cannot split a genuine photo set; backfill runs
// before it so numeric readings can separate back-to-back measurement
// events.
// Every rewrite is recorded as a Correction for audit; the input
// slice is never modified, and running a pass over its own output
// produces no further changes.
package normalize

import "daicho/internal/domain"

// DefaultThreshold is the share of non-empty values the most frequent
// form must hold before unification rewrites the outliers.
const DefaultThreshold = 0.6

// Options tunes a normalization pass.
type Options struct {
	// Threshold overrides DefaultThreshold when positive.
	Threshold float64
	// UnifyPathFields enables work-type, variety and subphase
	// unification.
	UnifyPathFields bool
	// UnifyStations enables station label unification.
	UnifyStations bool
	// ProtectedFiles lists file names unification must never rewrite,
	// on top of the automatic protection of records carrying a
	// recognized measurement value.
	ProtectedFiles []string
}

// DefaultOptions enables every pass at the default threshold.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, UnifyPathFields: true, UnifyStations: true}
}

// Stats summarizes what a normalization pass changed.
type Stats struct {
	TotalRecords           int `json:"totalRecords"`
	CorrectedRecords       int `json:"correctedRecords"`
	MeasurementCorrections int `json:"measurementCorrections"`
	AmbiguousSets          int `json:"ambiguousSets"`
}

// Result carries the rewritten batch plus the audit trail.
type Result struct {
	Records     []domain.ClassifiedRecord `json:"records"`
	Corrections []domain.Correction       `json:"corrections"`
	Sets        []domain.PhotoSet         `json:"sets"`
	Stats       Stats                     `json:"stats"`
}

// Records normalizes the batch with DefaultOptions.
func Records(records []domain.ClassifiedRecord) Result {
	return RecordsWith(records, DefaultOptions())
}

// RecordsWith normalizes the batch under the given options. The
// returned records are a rewritten copy in the original order.
func RecordsWith(records []domain.ClassifiedRecord, opts Options) Result {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	out := make([]domain.ClassifiedRecord, len(records))
	copy(out, records)

	protected := make(map[string]bool, len(opts.ProtectedFiles))
	for _, f := range opts.ProtectedFiles {
		protected[f] = true
	}
	for i := range records {
		if ContainsMeasurement(records[i].Measurements) {
			protected[records[i].FileName] = true
		}
	}

	var corrections []domain.Correction
	if opts.UnifyPathFields {
		cs := unifyPathFields(out, opts.Threshold, protected)
		Apply(out, cs)
		corrections = append(corrections, cs...)
	}
	if opts.UnifyStations {
		cs := unifyStations(out, opts.Threshold, protected)
		Apply(out, cs)
		corrections = append(corrections, cs...)
	}

	backfilled := backfillMeasurements(out)
	Apply(out, backfilled)
	corrections = append(corrections, backfilled...)

	sets := PartitionSets(out)
	cs := propagateBoards(out, sets)
	Apply(out, cs)
	corrections = append(corrections, cs...)

	return Result{
		Records:     out,
		Corrections: corrections,
		Sets:        sets,
		Stats:       buildStats(len(records), corrections, sets),
	}
}

// Apply writes corrections back onto the records. Each correction
// targets the record at its batch index; the file name is checked as
// a guard so a correction from another batch never lands on the wrong
// record. Duplicate file names are safe because the index, not the
// name, selects the record.
func Apply(records []domain.ClassifiedRecord, corrections []domain.Correction) {
	for _, c := range corrections {
		if c.Index < 0 || c.Index >= len(records) {
			continue
		}
		rec := &records[c.Index]
		if rec.FileName != c.FileName {
			continue
		}
		switch c.Field {
		case domain.CorrectionWorkType:
			rec.WorkType = c.Corrected
		case domain.CorrectionVariety:
			rec.Variety = c.Corrected
		case domain.CorrectionSubphase:
			rec.Subphase = c.Corrected
		case domain.CorrectionStation:
			rec.Station = c.Corrected
		case domain.CorrectionMeasurements:
			rec.Measurements = c.Corrected
		case domain.CorrectionDetectedText:
			rec.DetectedText = c.Corrected
		}
	}
}

func buildStats(total int, corrections []domain.Correction, sets []domain.PhotoSet) Stats {
	stats := Stats{TotalRecords: total}
	touched := make(map[int]bool)
	for _, c := range corrections {
		touched[c.Index] = true
		if c.Field == domain.CorrectionMeasurements || c.Field == domain.CorrectionDetectedText {
			stats.MeasurementCorrections++
		}
	}
	stats.CorrectedRecords = len(touched)
	for _, s := range sets {
		if s.Ambiguous {
			stats.AmbiguousSets++
		}
	}
	return stats
}
