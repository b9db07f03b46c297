package alias

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daicho/internal/domain"
)

func classified(workType, variety, subphase string) domain.ClassifiedRecord {
	return domain.ClassifiedRecord{
		RawRecord: domain.RawRecord{
			FileName:      "a.jpg",
			PhotoCategory: "品質管理写真",
			WorkType:      workType,
			Variety:       variety,
			Subphase:      subphase,
			Station:       "No.10+50",
			Remarks:       "到着温度 156.0℃",
		},
		Provenance: domain.ProvenanceMaster,
	}
}

func TestResolveExactMatchWins(t *testing.T) {
	m := Map{
		"舗装":   "舗装工",
		"As舗装": "アスファルト舗装工",
	}

	got, ok := m.resolve("As舗装")
	require.True(t, ok)
	assert.Equal(t, "アスファルト舗装工", got)
}

func TestResolveLongestSubstringWins(t *testing.T) {
	m := Map{
		"舗装":    "舗装工",
		"舗装打換":  "舗装打換え工",
	}

	got, ok := m.resolve("アスファルト舗装打換")
	require.True(t, ok)
	assert.Equal(t, "舗装打換え工", got)
}

func TestResolveTieBreaksLexicographically(t *testing.T) {
	m := Map{
		"基層": "基層工",
		"表層": "表層工",
	}

	// Both keys are contained and the same length; the smaller key
	// sorts first and must win on every run.
	for i := 0; i < 10; i++ {
		got, ok := m.resolve("表層基層")
		require.True(t, ok)
		assert.Equal(t, "基層工", got)
	}
}

func TestResolveNoMatch(t *testing.T) {
	m := Map{"舗装": "舗装工"}

	_, ok := m.resolve("区画線")
	assert.False(t, ok)

	_, ok = m.resolve("")
	assert.False(t, ok)

	_, ok = Map(nil).resolve("舗装")
	assert.False(t, ok)
}

func TestApplyRewritesFields(t *testing.T) {
	cfg := Config{
		WorkType: Map{"As舗装": "舗装工"},
		Variety:  Map{"表層": "表層工"},
		Subphase: Map{"温度管理": "温度測定"},
	}

	in := []domain.ClassifiedRecord{classified("As舗装", "表層", "温度管理")}
	out := cfg.Apply(in)

	require.Len(t, out, 1)
	assert.Equal(t, "舗装工", out[0].WorkType)
	assert.Equal(t, "表層工", out[0].Variety)
	assert.Equal(t, "温度測定", out[0].Subphase)
	assert.Equal(t, "No.10+50", out[0].Station)
	assert.Equal(t, domain.ProvenanceMaster, out[0].Provenance)
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	cfg := Config{WorkType: Map{"As舗装": "舗装工"}}

	in := []domain.ClassifiedRecord{classified("As舗装", "表層", "温度測定")}
	_ = cfg.Apply(in)

	assert.Equal(t, "As舗装", in[0].WorkType)
}

func TestApplyEmptyConfigIsNoOp(t *testing.T) {
	in := []domain.ClassifiedRecord{classified("舗装工", "表層工", "温度測定")}
	out := Config{}.Apply(in)

	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestMergeOverridesBase(t *testing.T) {
	base := Config{
		WorkType: Map{"舗装": "舗装工", "区画線": "区画線工"},
	}
	site := Config{
		WorkType: Map{"舗装": "舗装補修工"},
		Variety:  Map{"表層": "表層工"},
	}

	merged := base.Merge(site)

	assert.Equal(t, "舗装補修工", merged.WorkType["舗装"])
	assert.Equal(t, "区画線工", merged.WorkType["区画線"])
	assert.Equal(t, "表層工", merged.Variety["表層"])
	assert.Nil(t, merged.Remarks)
}

func TestPresetLookup(t *testing.T) {
	for _, name := range PresetNames() {
		cfg, ok := Preset(name)
		require.True(t, ok, name)
		assert.NotEqual(t, Config{}, cfg, name)
	}

	_, ok := Preset("tunnel")
	assert.False(t, ok)
}

func TestPresetPavementRewrites(t *testing.T) {
	cfg, ok := Preset(PresetPavement)
	require.True(t, ok)

	out := cfg.Apply([]domain.ClassifiedRecord{classified("アスファルト舗装", "下層路盤", "密度試験")})

	require.Len(t, out, 1)
	assert.Equal(t, "舗装工", out[0].WorkType)
	assert.Equal(t, "下層路盤工", out[0].Variety)
	assert.Equal(t, "現場密度測定", out[0].Subphase)
}

func TestLoadFileMergesOverPreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.json")
	payload := `{
		"workType": {"As舗装": "アスファルト舗装工"},
		"remarks": {"温度OK": "温度基準内"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	site, err := LoadFile(path)
	require.NoError(t, err)

	preset, ok := Preset(PresetPavement)
	require.True(t, ok)
	merged := preset.Merge(site)

	assert.Equal(t, "アスファルト舗装工", merged.WorkType["As舗装"])
	assert.Equal(t, "舗装打換え工", merged.WorkType["舗装打換"])
	assert.Equal(t, "温度基準内", merged.Remarks["温度OK"])
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse alias config")
}
