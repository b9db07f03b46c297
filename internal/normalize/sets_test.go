package normalize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daicho/internal/domain"
)

func TestPartitionSets_MaxSize(t *testing.T) {
	var records []domain.ClassifiedRecord
	for i := 0; i < 4; i++ {
		records = append(records, classified(fmt.Sprintf("p%d.jpg", i+1), "品質管理写真", "舗装工", "表層工", "No.10+50"))
	}

	sets := PartitionSets(records)

	require.Len(t, sets, 2)
	assert.Equal(t, 3, sets[0].Size())
	assert.Equal(t, 1, sets[1].Size())
	assert.Equal(t, 3, sets[1].Start)
}

func TestPartitionSets_BoundaryOnFieldChange(t *testing.T) {
	records := []domain.ClassifiedRecord{
		classified("p1.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p2.jpg", "品質管理写真", "舗装工", "表層工", "No.12+00"),
		classified("p3.jpg", "品質管理写真", "区画線工", "溶融式", "No.12+00"),
		classified("p4.jpg", "出来形管理写真", "区画線工", "溶融式", "No.12+00"),
	}

	sets := PartitionSets(records)

	require.Len(t, sets, 4)
	for i, set := range sets {
		assert.Equal(t, 1, set.Size(), "set %d", i)
		assert.False(t, set.Ambiguous, "set %d", i)
	}
}

func TestPartitionSets_BoundaryOnConflictingTemperatures(t *testing.T) {
	records := []domain.ClassifiedRecord{
		classified("p1.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p2.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
	}
	records[0].DetectedText = "到着温度 160.4℃"
	records[0].Measurements = "160.4℃"
	records[1].DetectedText = "敷均し温度 145℃"
	records[1].Measurements = "145℃"

	sets := PartitionSets(records)

	// Two readings over one paving pass are two measurement events.
	require.Len(t, sets, 2)
}

func TestPartitionSets_DimensionsCompareInMillimeters(t *testing.T) {
	records := []domain.ClassifiedRecord{
		classified("p1.jpg", "出来形管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p2.jpg", "出来形管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p3.jpg", "出来形管理写真", "舗装工", "表層工", "No.10+50"),
	}
	records[0].Measurements = "t=5cm"
	records[1].Measurements = "t=50mm"
	records[2].Measurements = "t=65mm"

	sets := PartitionSets(records)

	// 5cm and 50mm are the same thickness; 65mm is the next point.
	require.Len(t, sets, 2)
	assert.Equal(t, 2, sets[0].Size())
	assert.Equal(t, 2, sets[1].Start)
}

func TestPartitionSets_BoardIndex(t *testing.T) {
	records := []domain.ClassifiedRecord{
		classified("p1.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p2.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p3.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
	}
	records[1].HasBoard = true

	sets := PartitionSets(records)

	require.Len(t, sets, 1)
	assert.Equal(t, 1, sets[0].BoardIndex)
	assert.False(t, sets[0].Ambiguous)
}

func TestRecords_BoardPropagation(t *testing.T) {
	records := []domain.ClassifiedRecord{
		classified("p1.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p2.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p3.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
	}
	records[0].DetectedText = "舗設状況"
	records[0].Description = "全景"
	records[1].HasBoard = true
	records[1].Measurements = "到着温度 156℃"
	records[1].DetectedText = "到着温度 156.0℃"

	result := Records(records)
	out := result.Records

	for _, i := range []int{0, 2} {
		assert.Equal(t, "到着温度 156℃", out[i].Measurements, "record %d", i)
		assert.Equal(t, "到着温度 156.0℃", out[i].DetectedText, "record %d", i)
		assert.Equal(t, "品質管理写真", out[i].PhotoCategory, "record %d", i)
		assert.Equal(t, "舗装工", out[i].WorkType, "record %d", i)
	}
	assert.Equal(t, "全景", out[0].Description)

	require.Len(t, result.Corrections, 4)
	assert.Equal(t, 0, result.Stats.AmbiguousSets)
	assert.Equal(t, 4, result.Stats.MeasurementCorrections)
}

func TestRecords_MultipleBoardsAmbiguous(t *testing.T) {
	records := []domain.ClassifiedRecord{
		classified("p1.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p2.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p3.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
	}
	records[0].HasBoard = true
	records[0].Measurements = "到着温度 154℃"
	records[2].HasBoard = true
	records[2].Measurements = "到着温度 156℃"

	result := Records(records)

	assert.Empty(t, result.Corrections)
	assert.Equal(t, 1, result.Stats.AmbiguousSets)
	require.Len(t, result.Sets, 1)
	assert.True(t, result.Sets[0].Ambiguous)
	assert.Equal(t, -1, result.Sets[0].BoardIndex)

	// Both readings survive untouched.
	assert.Equal(t, "到着温度 154℃", result.Records[0].Measurements)
	assert.Equal(t, "到着温度 156℃", result.Records[2].Measurements)
}

func TestRecords_NoBoardAmbiguous(t *testing.T) {
	records := []domain.ClassifiedRecord{
		classified("p1.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
		classified("p2.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
	}

	result := Records(records)

	assert.Empty(t, result.Corrections)
	assert.Equal(t, 1, result.Stats.AmbiguousSets)
}

func TestRecords_SingletonNotAmbiguous(t *testing.T) {
	records := []domain.ClassifiedRecord{
		classified("p1.jpg", "品質管理写真", "舗装工", "表層工", "No.10+50"),
	}

	result := Records(records)

	require.Len(t, result.Sets, 1)
	assert.False(t, result.Sets[0].Ambiguous)
	assert.Equal(t, 0, result.Stats.AmbiguousSets)
}
