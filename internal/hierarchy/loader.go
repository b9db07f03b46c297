package hierarchy

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"daicho/internal/domain"
)

// Load parses a master source in the given format. A malformed source
// fails the load call; it never falls back to an empty master.
func Load(content []byte, format domain.MasterFormat) (*Master, error) {
	switch format {
	case domain.MasterFormatJSON:
		return LoadJSON(content)
	case domain.MasterFormatCSV:
		return LoadCSV(content)
	case domain.MasterFormatXLSX:
		return LoadXLSX(content)
	default:
		return nil, fmt.Errorf("master format %q: %w", format, domain.ErrUnsupportedFileType)
	}
}

// LoadFile reads a master from disk, deriving the format from the file
// extension.
func LoadFile(path string) (*Master, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	format, ok := domain.MasterFormatExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("master file %q: %w", path, domain.ErrUnsupportedFileType)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read master %q: %w", path, err)
	}
	return Load(content, format)
}

// LoadCSV parses the flat tabular form: seven ordered columns
// (division, photo category, work type, variety, subphase, remarks,
// search patterns), first row a header. Rows with fewer than seven
// fields are skipped.
func LoadCSV(content []byte) (*Master, error) {
	r := csv.NewReader(bytes.NewReader(stripBOM(content)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse master csv: %v: %w", err, domain.ErrMasterMalformed)
	}
	return fromRows(rows)
}

// LoadXLSX parses the flat tabular form from the first sheet of a
// workbook. Trailing empty cells are restored before row handling so
// a blank pattern column does not drop the row.
func LoadXLSX(content []byte) (*Master, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open master workbook: %v: %w", err, domain.ErrMasterMalformed)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("master workbook has no sheets: %w", domain.ErrMasterMalformed)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read master sheet %q: %w", sheets[0], domain.ErrMasterMalformed)
	}

	padded := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		for len(row) < flatColumns {
			row = append(row, "")
		}
		padded = append(padded, row)
	}
	return fromRows(padded)
}

const flatColumns = 7

func fromRows(rows [][]string) (*Master, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("master source is empty: %w", domain.ErrMasterMalformed)
	}

	division := ""
	var leaves []Leaf
	for i, row := range rows[1:] {
		if len(row) < flatColumns {
			continue
		}
		if isBlankRow(row) {
			continue
		}

		path := Path{
			PhotoCategory: strings.TrimSpace(row[1]),
			WorkType:      strings.TrimSpace(row[2]),
			Variety:       strings.TrimSpace(row[3]),
			Subphase:      strings.TrimSpace(row[4]),
		}
		key := strings.TrimSpace(row[5])
		if key == "" {
			continue
		}
		if path.PhotoCategory == "" || path.WorkType == "" || path.Variety == "" || path.Subphase == "" {
			return nil, fmt.Errorf("row %d: leaf %q is missing a level: %w", i+2, key, domain.ErrMasterMalformed)
		}
		if division == "" {
			division = strings.TrimSpace(row[0])
		}
		leaves = append(leaves, Leaf{
			Key:      key,
			Path:     path,
			Patterns: splitPatterns(row[6]),
		})
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("load master: %w", domain.ErrMasterEmpty)
	}
	return newMaster(division, leaves)
}

// splitPatterns splits a pattern cell on pipes, falling back to commas
// when no pipe is present.
func splitPatterns(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	sep := "|"
	if !strings.Contains(cell, "|") {
		sep = ","
	}
	var out []string
	for _, p := range strings.Split(cell, sep) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}

// newMaster builds the tree and flat index from leaves in traversal
// order. Duplicate leaf keys under the same subphase node fail the
// load; equal keys in distinct branches are legal and the first
// occurrence wins lookups. An empty leaf list is allowed here so
// FilterByWorkTypes can produce empty masters; loaders reject empty
// sources themselves.
func newMaster(division string, leaves []Leaf) (*Master, error) {
	m := &Master{
		division: division,
		root:     &Node{},
		index:    make(map[string]Path),
	}

	for _, leaf := range leaves {
		node := m.root
		levels := []struct {
			key  string
			path Path
		}{
			{leaf.Path.PhotoCategory, Path{PhotoCategory: leaf.Path.PhotoCategory}},
			{leaf.Path.WorkType, Path{PhotoCategory: leaf.Path.PhotoCategory, WorkType: leaf.Path.WorkType}},
			{leaf.Path.Variety, Path{PhotoCategory: leaf.Path.PhotoCategory, WorkType: leaf.Path.WorkType, Variety: leaf.Path.Variety}},
			{leaf.Path.Subphase, leaf.Path},
		}
		for _, lvl := range levels {
			next := node.child(lvl.key)
			if next == nil {
				next = &Node{Key: lvl.key}
				node.addChild(next)
				m.recordIndex(lvl.key, lvl.path)
			}
			node = next
		}

		if node.child(leaf.Key) != nil {
			return nil, fmt.Errorf("duplicate leaf %q under %q/%q: %w",
				leaf.Key, leaf.Path.Variety, leaf.Path.Subphase, domain.ErrMasterMalformed)
		}
		node.addChild(&Node{Key: leaf.Key, Patterns: leaf.Patterns})
		m.recordIndex(leaf.Key, leaf.Path)
		m.leaves = append(m.leaves, leaf)
	}
	return m, nil
}

func (m *Master) recordIndex(key string, path Path) {
	if _, ok := m.index[key]; !ok {
		m.index[key] = path
	}
}

// LoadJSON parses the nested form: category → work type → variety →
// subphase → remarks key, with the pattern set at terminal nodes
// either as a bare string array or under a reserved "patterns" field.
// A single top-level cost-division wrapper key is detected by depth
// and skipped.
func LoadJSON(content []byte) (*Master, error) {
	root, err := decodeOrdered(stripBOM(content))
	if err != nil {
		return nil, fmt.Errorf("parse master json: %v: %w", err, domain.ErrMasterMalformed)
	}
	if root.entries == nil {
		return nil, fmt.Errorf("master json root must be an object: %w", domain.ErrMasterMalformed)
	}

	division := ""
	start := root
	depth, ok := terminalDepth(root, 1)
	if !ok {
		return nil, fmt.Errorf("master json has no terminal pattern sets: %w", domain.ErrMasterMalformed)
	}
	switch depth {
	case 5:
		// Top level is already the category level.
	case 6:
		if len(root.entries) != 1 {
			return nil, fmt.Errorf("master json wrapper must hold a single division: %w", domain.ErrMasterMalformed)
		}
		division = root.entries[0].key
		start = root.entries[0].val
		if start.entries == nil {
			return nil, fmt.Errorf("master json division %q must be an object: %w", division, domain.ErrMasterMalformed)
		}
	default:
		return nil, fmt.Errorf("master json nesting depth %d is not a category tree: %w", depth, domain.ErrMasterMalformed)
	}

	var leaves []Leaf
	for _, cat := range start.entries {
		if cat.val.entries == nil {
			return nil, levelErr("category", cat.key)
		}
		for _, wt := range cat.val.entries {
			if wt.val.entries == nil {
				return nil, levelErr("work type", wt.key)
			}
			for _, v := range wt.val.entries {
				if v.val.entries == nil {
					return nil, levelErr("variety", v.key)
				}
				for _, sp := range v.val.entries {
					if sp.val.entries == nil {
						return nil, levelErr("subphase", sp.key)
					}
					for _, leaf := range sp.val.entries {
						patterns, ok := terminalPatterns(leaf.val)
						if !ok {
							return nil, levelErr("remarks", leaf.key)
						}
						leaves = append(leaves, Leaf{
							Key: leaf.key,
							Path: Path{
								PhotoCategory: cat.key,
								WorkType:      wt.key,
								Variety:       v.key,
								Subphase:      sp.key,
							},
							Patterns: patterns,
						})
					}
				}
			}
		}
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("load master: %w", domain.ErrMasterEmpty)
	}
	return newMaster(division, leaves)
}

func levelErr(level, key string) error {
	return fmt.Errorf("node %q is not a valid %s level: %w", key, level, domain.ErrMasterMalformed)
}

// jsonNode is a JSON value restricted to the shapes a master may
// contain: objects with preserved key order, or string arrays.
type jsonNode struct {
	entries  []jsonEntry
	patterns []string
	isArray  bool
}

type jsonEntry struct {
	key string
	val *jsonNode
}

// terminalPatterns reports whether node is a terminal pattern set,
// either a bare array or an object with a single "patterns" entry.
func terminalPatterns(node *jsonNode) ([]string, bool) {
	if node.isArray {
		return node.patterns, true
	}
	if len(node.entries) == 1 && node.entries[0].key == "patterns" && node.entries[0].val.isArray {
		return node.entries[0].val.patterns, true
	}
	return nil, false
}

// terminalDepth returns the depth of the first terminal pattern set,
// counting the top-level object's keys as depth 1.
func terminalDepth(node *jsonNode, depth int) (int, bool) {
	for _, e := range node.entries {
		if _, ok := terminalPatterns(e.val); ok {
			return depth, true
		}
		if e.val.entries != nil {
			if d, ok := terminalDepth(e.val, depth+1); ok {
				return d, true
			}
		}
	}
	return 0, false
}

// decodeOrdered parses content preserving object key order, which
// defines the master's traversal order for tie-breaking.
func decodeOrdered(content []byte) (*jsonNode, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	node, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after master json")
	}
	return node, nil
}

func decodeValue(dec *json.Decoder) (*jsonNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("unexpected scalar %v", tok)
	}

	switch delim {
	case '{':
		node := &jsonNode{entries: []jsonEntry{}}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is not a string")
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			node.entries = append(node.entries, jsonEntry{key: key, val: val})
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return nil, err
		}
		return node, nil

	case '[':
		node := &jsonNode{isArray: true}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			s, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("pattern array holds non-string %v", tok)
			}
			s = strings.TrimSpace(s)
			if s != "" {
				node.patterns = append(node.patterns, s)
			}
		}
		if _, err := dec.Token(); err != nil { // closing bracket
			return nil, err
		}
		return node, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}
