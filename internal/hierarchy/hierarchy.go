// Package hierarchy manages the classification taxonomy used to match
// recognized photo content against canonical work categories. A master
// is loaded once from a nested JSON, flat CSV or XLSX source and is
// read-only afterwards, so it may be shared freely across goroutines.
package hierarchy

import (
	"sort"
)

// Path is the canonical ancestor chain associated with a leaf: photo
// category, work type, variety and subphase. Fields below a node's own
// level are left empty.
type Path struct {
	PhotoCategory string `json:"photoCategory"`
	WorkType      string `json:"workType"`
	Variety       string `json:"variety"`
	Subphase      string `json:"subphase"`
}

// Node is one level of the taxonomy tree. Children preserve authoring
// order. Patterns are only set on leaves.
type Node struct {
	Key      string
	Children []*Node
	Patterns []string

	childIndex map[string]*Node
}

func (n *Node) child(key string) *Node {
	if n.childIndex == nil {
		return nil
	}
	return n.childIndex[key]
}

func (n *Node) addChild(c *Node) {
	if n.childIndex == nil {
		n.childIndex = make(map[string]*Node)
	}
	n.Children = append(n.Children, c)
	n.childIndex[c.Key] = c
}

// Leaf pairs a terminal remarks key with its ancestor path and search
// pattern set, in master traversal order.
type Leaf struct {
	Key      string   `json:"key"`
	Path     Path     `json:"path"`
	Patterns []string `json:"patterns"`
}

// Master holds the taxonomy tree plus flat lookup structures built at
// load time. The zero value is not usable; construct via Load.
type Master struct {
	division string
	root     *Node
	leaves   []Leaf
	index    map[string]Path
}

// Division returns the cost-division label the master was authored
// under (empty when the source carried none).
func (m *Master) Division() string {
	return m.division
}

// Leaves returns every terminal entry in master traversal order. The
// returned slice must not be modified.
func (m *Master) Leaves() []Leaf {
	return m.leaves
}

// LeafCount returns the number of terminal entries.
func (m *Master) LeafCount() int {
	return len(m.leaves)
}

// LookupPath returns the ancestor path recorded for key at any level
// of the tree. When the same key occurs in several branches the first
// occurrence in traversal order wins.
func (m *Master) LookupPath(key string) (Path, bool) {
	p, ok := m.index[key]
	return p, ok
}

// PhotoCategories returns the distinct photo category labels, sorted.
func (m *Master) PhotoCategories() []string {
	return m.distinct(func(l Leaf) string { return l.Path.PhotoCategory })
}

// WorkTypes returns the distinct work type labels, sorted.
func (m *Master) WorkTypes() []string {
	return m.distinct(func(l Leaf) string { return l.Path.WorkType })
}

// Varieties returns the distinct variety labels under a work type,
// sorted.
func (m *Master) Varieties(workType string) []string {
	return m.distinct(func(l Leaf) string {
		if l.Path.WorkType != workType {
			return ""
		}
		return l.Path.Variety
	})
}

// Subphases returns the distinct subphase labels under a work type and
// variety, sorted.
func (m *Master) Subphases(workType, variety string) []string {
	return m.distinct(func(l Leaf) string {
		if l.Path.WorkType != workType || l.Path.Variety != variety {
			return ""
		}
		return l.Path.Subphase
	})
}

func (m *Master) distinct(pick func(Leaf) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range m.leaves {
		v := pick(l)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FilterByWorkTypes returns a copy of the master restricted to the
// given work type branches. An empty candidate list returns the
// receiver unchanged; the receiver is never mutated.
func (m *Master) FilterByWorkTypes(workTypes []string) *Master {
	if len(workTypes) == 0 {
		return m
	}
	keep := make(map[string]struct{}, len(workTypes))
	for _, wt := range workTypes {
		keep[wt] = struct{}{}
	}

	var kept []Leaf
	for _, l := range m.leaves {
		if _, ok := keep[l.Path.WorkType]; ok {
			kept = append(kept, l)
		}
	}

	// Leaves of one master never collide, so rebuilding cannot fail.
	filtered, err := newMaster(m.division, kept)
	if err != nil {
		return m
	}
	return filtered
}

// WorkTypeTree returns the work type → variety → subphase hierarchy as
// plain maps, the shape embedded into recognition prompts.
func (m *Master) WorkTypeTree() map[string]map[string][]string {
	tree := make(map[string]map[string][]string)
	for _, wt := range m.WorkTypes() {
		varieties := make(map[string][]string)
		for _, v := range m.Varieties(wt) {
			varieties[v] = m.Subphases(wt, v)
		}
		tree[wt] = varieties
	}
	return tree
}

// RemarksFor returns the leaf keys under the given path, in traversal
// order. Empty selector fields match any value at that level.
func (m *Master) RemarksFor(workType, variety string) []string {
	var out []string
	for _, l := range m.leaves {
		if workType != "" && l.Path.WorkType != workType {
			continue
		}
		if variety != "" && l.Path.Variety != variety {
			continue
		}
		out = append(out, l.Key)
	}
	return out
}
