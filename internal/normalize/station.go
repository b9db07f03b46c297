package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"daicho/internal/domain"
)

// stationSeparatorRe unifies the No.X.Y and No.X-Y spellings to No.X+Y.
var stationSeparatorRe = regexp.MustCompile(`no\.(\d+)[.\-](\d+)`)

// unifyStations rewrites station labels toward the most frequent
// normalized form when it holds at least threshold of the non-empty
// values. The corrected value keeps the original spelling of the first
// record carrying the winning form, so the batch converges on one
// human-written label rather than the folded comparison form.
func unifyStations(records []domain.ClassifiedRecord, threshold float64, protected map[string]bool) []domain.Correction {
	type vote struct {
		raw        string
		normalized string
	}
	var votes []vote
	for i := range records {
		if records[i].Station == "" {
			continue
		}
		votes = append(votes, vote{records[i].Station, NormalizeStationFormat(records[i].Station)})
	}
	if len(votes) == 0 {
		return nil
	}

	normalized := make([]string, len(votes))
	for i, v := range votes {
		normalized[i] = v.normalized
	}
	most, ratio, ok := mostFrequentWithRatio(normalized)
	if !ok || ratio < threshold {
		return nil
	}

	target := most
	for _, v := range votes {
		if v.normalized == most {
			target = v.raw
			break
		}
	}

	var corrections []domain.Correction
	for i := range records {
		station := records[i].Station
		if station == "" || protected[records[i].FileName] {
			continue
		}
		if strings.EqualFold(station, target) {
			continue
		}
		corrections = append(corrections, domain.Correction{
			Index:     i,
			FileName:  records[i].FileName,
			Field:     domain.CorrectionStation,
			Original:  station,
			Corrected: target,
			Reason:    fmt.Sprintf("最頻出測点「%s」に統一（元: %s）", target, station),
		})
	}
	return corrections
}

// NormalizeStationFormat folds a station label to its comparison form:
// halfwidth, lower case, digit-context OCR fixes and a unified "+"
// separator, so No.10+50, NO.10.50 and Ｎｏ．１０＋５０ compare equal.
func NormalizeStationFormat(station string) string {
	s := width.Fold.String(station)
	s = strings.ToLower(s)
	s = fixOCRErrors(s)
	return stationSeparatorRe.ReplaceAllString(s, "no.$1+$2")
}

// fixOCRErrors repairs the usual o/0 and l/1 confusions when the
// character sits next to a digit.
func fixOCRErrors(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		prevDigit := i > 0 && isASCIIDigit(runes[i-1])
		nextDigit := i+1 < len(runes) && isASCIIDigit(runes[i+1])
		if !prevDigit && !nextDigit {
			continue
		}
		switch r {
		case 'o', 'O':
			runes[i] = '0'
		case 'l', 'I':
			runes[i] = '1'
		}
	}
	return string(runes)
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
