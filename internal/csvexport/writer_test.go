package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daicho/internal/domain"
)

func TestWriteRecordHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewRecordWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 12)
	assert.Equal(t, "ファイル名", row[0])
	assert.Equal(t, "工種", row[3])
	assert.Equal(t, "判定", row[11])
}

func TestWriteRecords(t *testing.T) {
	rec := domain.ClassifiedRecord{
		RawRecord: domain.RawRecord{
			FileName:      "IMG_0001.jpg",
			Date:          "2026-07-01 09:12",
			PhotoCategory: "品質管理写真",
			WorkType:      "舗装工",
			Variety:       "表層工",
			Subphase:      "温度測定",
			Station:       "No.10+50",
			Remarks:       "到着温度",
			Measurements:  "到着温度 156.0℃",
			HasBoard:      true,
			DetectedText:  "到着温度 156.0℃",
		},
		Provenance: domain.ProvenanceMaster,
	}

	var buf bytes.Buffer
	w := NewRecordWriter(&buf)
	require.NoError(t, w.WriteRecords([]domain.ClassifiedRecord{rec}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 12)
	assert.Equal(t, "IMG_0001.jpg", row[0])
	assert.Equal(t, "2026-07-01 09:12", row[1])
	assert.Equal(t, "品質管理写真", row[2])
	assert.Equal(t, "舗装工", row[3])
	assert.Equal(t, "表層工", row[4])
	assert.Equal(t, "温度測定", row[5])
	assert.Equal(t, "No.10+50", row[6])
	assert.Equal(t, "到着温度", row[7])
	assert.Equal(t, "到着温度 156.0℃", row[8])
	assert.Equal(t, "あり", row[9])
	assert.Equal(t, "到着温度 156.0℃", row[10])
	assert.Equal(t, "master", row[11])
}

func TestWriteRecords_UnmatchedWithoutBoard(t *testing.T) {
	rec := domain.ClassifiedRecord{
		RawRecord: domain.RawRecord{
			FileName: "IMG_0002.jpg",
			WorkType: "区画線工",
		},
		Provenance: domain.ProvenanceRaw,
	}

	var buf bytes.Buffer
	w := NewRecordWriter(&buf)
	require.NoError(t, w.WriteRecords([]domain.ClassifiedRecord{rec}))
	w.Flush()

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Equal(t, "なし", row[9])
	assert.Equal(t, "raw", row[11])
	assert.Empty(t, row[6])
}

func TestWriteCorrections(t *testing.T) {
	corrections := []domain.Correction{
		{
			FileName:  "IMG_0003.jpg",
			Field:     domain.CorrectionStation,
			Original:  "No.10.50",
			Corrected: "No.10+50",
			Reason:    "最頻出測点「No.10+50」に統一（元: No.10.50）",
		},
		{
			FileName:  "IMG_0004.jpg",
			Field:     domain.CorrectionMeasurements,
			Original:  "",
			Corrected: "到着温度 156.0℃",
			Reason:    "黒板写真「IMG_0003.jpg」の計測値を同一セットに反映",
		},
	}

	var buf bytes.Buffer
	w := NewCorrectionWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteCorrections(corrections))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "項目", rows[0][1])
	assert.Equal(t, []string{"IMG_0003.jpg", "測点", "No.10.50", "No.10+50", "最頻出測点「No.10+50」に統一（元: No.10.50）"}, rows[1])
	assert.Equal(t, "計測値", rows[2][1])
	assert.Empty(t, rows[2][2])
}

func TestExportRecordsWritesBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportRecords(&buf, []domain.ClassifiedRecord{
		{RawRecord: domain.RawRecord{FileName: "a.jpg"}, Provenance: domain.ProvenanceRaw},
	}))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, BOM))

	r := csv.NewReader(bytes.NewReader(data[len(BOM):]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a.jpg", rows[1][0])
}

func TestExportCorrectionsWritesBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCorrections(&buf, nil))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, BOM))

	r := csv.NewReader(bytes.NewReader(data[len(BOM):]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ファイル名", rows[0][0])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Route 1 Ledger", "Route_1_Ledger"},
		{"special chars", "FY 2026 / 1st (Apr-Jun)", "FY_2026_1st_Apr-Jun"},
		{"japanese with digits keeps them", "市道1号線舗装補修工事", "1"},
		{"fully japanese falls back", "舗装補修工事", "photo_ledger"},
		{"hyphens and underscores preserved", "site-a_2026", "site-a_2026"},
		{"consecutive underscores collapsed", "test___ledger", "test_ledger"},
		{"empty", "", "photo_ledger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	filename := BuildFilename("Route 1 Ledger")
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, "Route_1_Ledger_"+today+".csv", filename)
}
