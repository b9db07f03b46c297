package layout

import (
	"strings"

	"golang.org/x/text/width"
)

// Ellipsis ends every truncated line.
const Ellipsis = "…"

// widthEps absorbs float rounding when a string meets its budget
// exactly, e.g. five full-width runes against a five-em width.
const widthEps = 1e-9

// runeAdvanceEm returns the advance of r in em units. Wide, fullwidth
// and ambiguous runes take a full em, everything else half an em,
// which matches how CJK fonts set mixed Japanese and ASCII text.
func runeAdvanceEm(r rune) float64 {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth, width.EastAsianAmbiguous:
		return 1
	}
	return 0.5
}

// StringWidthMM measures the rendered advance of s in millimeters at
// the given font size.
func StringWidthMM(s string, fontSizePt float64) float64 {
	return measureEm(s) * PtToMM(fontSizePt)
}

// TruncateToWidthMM shortens s so its rendered width stays within
// maxWidthMM, appending the ellipsis when anything was cut. When even
// the ellipsis alone does not fit, the result is still the ellipsis:
// truncation degrades, it never fails.
func TruncateToWidthMM(s string, maxWidthMM, fontSizePt float64) string {
	emMM := PtToMM(fontSizePt)
	budget := maxWidthMM/emMM + widthEps
	if measureEm(s) <= budget {
		return s
	}
	budget -= runeAdvanceEm('…')

	var b strings.Builder
	used := 0.0
	for _, r := range s {
		adv := runeAdvanceEm(r)
		if used+adv > budget {
			break
		}
		b.WriteRune(r)
		used += adv
	}
	return b.String() + Ellipsis
}

// WrapToWidthMM breaks s into at most maxLines lines that each fit
// maxWidthMM, packing runes greedily since Japanese has no word
// boundaries to honor. Text remaining after the last line is
// ellipsis-truncated into it.
func WrapToWidthMM(s string, maxWidthMM, fontSizePt float64, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	emMM := PtToMM(fontSizePt)
	budget := maxWidthMM/emMM + widthEps
	if measureEm(s) <= budget {
		return []string{s}
	}

	runes := []rune(s)
	var lines []string
	pos := 0
	for line := 0; line < maxLines-1 && pos < len(runes); line++ {
		start := pos
		used := 0.0
		for pos < len(runes) {
			adv := runeAdvanceEm(runes[pos])
			if used+adv > budget {
				break
			}
			used += adv
			pos++
		}
		if pos == start {
			// Budget narrower than a single rune; emit it anyway so
			// the loop always advances.
			pos++
		}
		lines = append(lines, string(runes[start:pos]))
	}
	if pos < len(runes) {
		lines = append(lines, TruncateToWidthMM(string(runes[pos:]), maxWidthMM, fontSizePt))
	}
	return lines
}

func measureEm(s string) float64 {
	em := 0.0
	for _, r := range s {
		em += runeAdvanceEm(r)
	}
	return em
}
