package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"daicho/internal/domain"
)

func TestDetect_Pavement(t *testing.T) {
	records := []domain.RawRecord{
		{
			FileName:         "temp1.jpg",
			PhotoCategory:    "到着温度",
			SceneDescription: "アスファルト舗装",
		},
	}

	types := Detect(records)
	assert.Contains(t, types, "舗装工")
}

func TestDetect_Marking(t *testing.T) {
	records := []domain.RawRecord{
		{
			FileName:         "line1.jpg",
			DetectedText:     "区画線施工",
			SceneDescription: "白線を引いている",
		},
	}

	types := Detect(records)
	assert.Contains(t, types, "区画線工")
}

func TestDetect_Multiple(t *testing.T) {
	records := []domain.RawRecord{
		{
			FileName:         "temp1.jpg",
			PhotoCategory:    "転圧状況",
			SceneDescription: "ローラーで転圧",
		},
		{
			FileName:         "line1.jpg",
			SceneDescription: "区画線の白線",
		},
		{
			FileName:         "demolish1.jpg",
			PhotoCategory:    "取壊し状況",
			SceneDescription: "解体作業",
		},
	}

	types := Detect(records)
	assert.Contains(t, types, "舗装工")
	assert.Contains(t, types, "区画線工")
	assert.Contains(t, types, "構造物撤去工")
	assert.Len(t, types, 3)
}

func TestDetect_NoMatches(t *testing.T) {
	records := []domain.RawRecord{
		{
			FileName:         "other.jpg",
			PhotoCategory:    "その他",
			SceneDescription: "風景写真",
		},
	}

	assert.Empty(t, Detect(records))
}

func TestDetect_Drainage(t *testing.T) {
	records := []domain.RawRecord{
		{
			FileName:     "gutter.jpg",
			DetectedText: "側溝設置",
		},
		{
			FileName:         "manhole.jpg",
			SceneDescription: "マンホール周り",
		},
	}

	types := Detect(records)
	assert.Equal(t, []string{"排水構造物工"}, types)
}

func TestDetect_SortedAndDistinct(t *testing.T) {
	records := []domain.RawRecord{
		{FileName: "a.jpg", SceneDescription: "掘削とバックホウ"},
		{FileName: "b.jpg", DetectedText: "アスファルト"},
		{FileName: "c.jpg", DetectedText: "アスファルト舗設"},
	}

	types := Detect(records)
	assert.Equal(t, []string{"舗装工", "道路土工"}, types)
}

func TestDetect_EmptyBatch(t *testing.T) {
	assert.Empty(t, Detect(nil))
}
