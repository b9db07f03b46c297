package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestMaster(t *testing.T) *Master {
	t.Helper()
	m, err := LoadCSV([]byte(testCSV))
	require.NoError(t, err)
	return m
}

func TestLookupPath_EveryLeafRoundtrips(t *testing.T) {
	m := loadTestMaster(t)
	for _, leaf := range m.Leaves() {
		path, ok := m.LookupPath(leaf.Key)
		require.True(t, ok, "leaf %q not indexed", leaf.Key)
		assert.Equal(t, leaf.Path, path)
	}
}

func TestLookupPath_IntermediateLevels(t *testing.T) {
	m := loadTestMaster(t)

	path, ok := m.LookupPath("舗装工")
	require.True(t, ok)
	assert.Equal(t, "施工状況写真", path.PhotoCategory)
	assert.Equal(t, "舗装工", path.WorkType)
	assert.Empty(t, path.Variety)

	_, ok = m.LookupPath("存在しないキー")
	assert.False(t, ok)
}

func TestWorkTypesAndVarieties(t *testing.T) {
	m := loadTestMaster(t)

	assert.Equal(t, []string{"区画線工", "舗装工"}, m.WorkTypes())
	assert.Equal(t, []string{"舗装打換え工"}, m.Varieties("舗装工"))
	assert.Equal(t, []string{"表層工"}, m.Subphases("舗装工", "舗装打換え工"))
	assert.Empty(t, m.Varieties("道路土工"))
}

func TestPhotoCategories(t *testing.T) {
	m := loadTestMaster(t)
	assert.Equal(t, []string{"品質管理写真", "施工状況写真"}, m.PhotoCategories())
}

func TestFilterByWorkTypes(t *testing.T) {
	m := loadTestMaster(t)

	filtered := m.FilterByWorkTypes([]string{"舗装工"})
	assert.Equal(t, 2, filtered.LeafCount())
	assert.Equal(t, []string{"舗装工"}, filtered.WorkTypes())

	// The original is untouched.
	assert.Equal(t, 3, m.LeafCount())
}

func TestFilterByWorkTypes_EmptyCandidates(t *testing.T) {
	m := loadTestMaster(t)
	assert.Same(t, m, m.FilterByWorkTypes(nil))
}

func TestFilterByWorkTypes_NoMatches(t *testing.T) {
	m := loadTestMaster(t)
	filtered := m.FilterByWorkTypes([]string{"道路土工"})
	assert.Equal(t, 0, filtered.LeafCount())
}

func TestWorkTypeTree(t *testing.T) {
	m := loadTestMaster(t)
	tree := m.WorkTypeTree()

	require.Contains(t, tree, "舗装工")
	require.Contains(t, tree["舗装工"], "舗装打換え工")
	assert.Equal(t, []string{"表層工"}, tree["舗装工"]["舗装打換え工"])
}

func TestRemarksFor(t *testing.T) {
	m := loadTestMaster(t)

	assert.Equal(t, []string{"舗設状況", "アスファルト混合物温度測定"}, m.RemarksFor("舗装工", ""))
	assert.Equal(t, []string{"区画線設置状況"}, m.RemarksFor("区画線工", "区画線工"))
	assert.Len(t, m.RemarksFor("", ""), 3)
}
