package recognize

import (
	"daicho/internal/domain"
	"daicho/internal/port"
	"daicho/internal/scan"
)

// BuildRecords joins scanned photo info with the model's observations
// into raw records, keyed by file name. Every scanned photo yields a
// record; a photo the model skipped keeps its file info with empty
// extraction fields, so the ledger never loses a photo.
func BuildRecords(photos []scan.Photo, observations []port.Observation) []domain.RawRecord {
	byName := make(map[string]port.Observation, len(observations))
	for _, o := range observations {
		byName[o.FileName] = o
	}

	records := make([]domain.RawRecord, 0, len(photos))
	for _, p := range photos {
		r := domain.RawRecord{
			FileName: p.FileName,
			FilePath: p.FilePath,
			Date:     p.Date,
		}
		if o, ok := byName[p.FileName]; ok {
			r.HasBoard = o.HasBoard
			r.DetectedText = o.DetectedText
			r.Measurements = o.Measurements
			r.SceneDescription = o.SceneDescription
			r.PhotoCategory = o.PhotoCategory
		}
		records = append(records, r)
	}
	return records
}
