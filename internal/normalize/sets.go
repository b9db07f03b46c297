package normalize

import (
	"fmt"

	"daicho/internal/domain"
)

// maxSetSize bounds a photo set: a measurement event is documented by
// at most three shots (wide view, board close-up, instrument close-up).
const maxSetSize = 3

// PartitionSets splits the batch into contiguous photo sets. A new set
// starts whenever the photo category, work type, variety or station
// changes, when two consecutive photos carry conflicting numeric
// readings, or when the current set already holds maxSetSize records.
func PartitionSets(records []domain.ClassifiedRecord) []domain.PhotoSet {
	var sets []domain.PhotoSet
	if len(records) == 0 {
		return sets
	}
	start := 0
	for i := 1; i <= len(records); i++ {
		if i == len(records) || i-start == maxSetSize || boundary(&records[i-1], &records[i]) {
			sets = append(sets, newSet(records, start, i))
			start = i
		}
	}
	return sets
}

func boundary(prev, next *domain.ClassifiedRecord) bool {
	return prev.PhotoCategory != next.PhotoCategory ||
		prev.WorkType != next.WorkType ||
		prev.Variety != next.Variety ||
		prev.Station != next.Station ||
		readingBoundary(prev, next)
}

// readingBoundary splits consecutive photos that both carry a numeric
// reading but disagree on it. Temperature shots over one paving pass
// and thickness shots at successive measuring points document distinct
// events even when every classification field matches. Dimensions
// compare in millimeters so 5cm and 50mm read as the same event.
func readingBoundary(prev, next *domain.ClassifiedRecord) bool {
	if IsTemperaturePhoto(prev.DetectedText) && IsTemperaturePhoto(next.DetectedText) {
		pt, pok := ExtractTemperature(prev.Measurements)
		nt, nok := ExtractTemperature(next.Measurements)
		if pok && nok && pt != nt {
			return true
		}
	}
	pd, pok := ExtractDimensionMM(prev.Measurements)
	nd, nok := ExtractDimensionMM(next.Measurements)
	return pok && nok && pd != nd
}

func newSet(records []domain.ClassifiedRecord, start, end int) domain.PhotoSet {
	set := domain.PhotoSet{Start: start, End: end, BoardIndex: -1}
	boards := 0
	for i := start; i < end; i++ {
		if records[i].HasBoard {
			boards++
			set.BoardIndex = i
		}
	}
	if boards != 1 {
		set.BoardIndex = -1
		// A single photo is trivially consistent with itself.
		set.Ambiguous = end-start > 1
	}
	return set
}

// propagateBoards copies the board record's measurement and detected
// text onto the other records of each unambiguous set. Classification
// fields, descriptions and file identity are never touched.
func propagateBoards(records []domain.ClassifiedRecord, sets []domain.PhotoSet) []domain.Correction {
	var corrections []domain.Correction
	for _, set := range sets {
		if set.BoardIndex < 0 || set.Size() < 2 {
			continue
		}
		auth := records[set.BoardIndex]
		for i := set.Start; i < set.End; i++ {
			if i == set.BoardIndex {
				continue
			}
			if records[i].Measurements != auth.Measurements {
				corrections = append(corrections, boardCorrection(
					i, records[i].FileName, domain.CorrectionMeasurements,
					records[i].Measurements, auth.Measurements, auth.FileName))
			}
			if records[i].DetectedText != auth.DetectedText {
				corrections = append(corrections, boardCorrection(
					i, records[i].FileName, domain.CorrectionDetectedText,
					records[i].DetectedText, auth.DetectedText, auth.FileName))
			}
		}
	}
	return corrections
}

func boardCorrection(index int, fileName string, field domain.CorrectionField, original, corrected, authFile string) domain.Correction {
	reason := fmt.Sprintf("黒板写真「%s」の%sを同一セットに反映", authFile, field.Label())
	if original != "" {
		reason = fmt.Sprintf("黒板写真「%s」の%sを同一セットに反映（元: %s）", authFile, field.Label(), original)
	}
	return domain.Correction{
		Index:     index,
		FileName:  fileName,
		Field:     field,
		Original:  original,
		Corrected: corrected,
		Reason:    reason,
	}
}
