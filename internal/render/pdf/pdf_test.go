package pdf

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daicho/internal/domain"
	"daicho/internal/layout"
)

func ledgerRecord(name string) domain.ClassifiedRecord {
	return domain.ClassifiedRecord{
		RawRecord: domain.RawRecord{
			FileName:      name,
			FilePath:      "/photos/" + name,
			Date:          "2026-07-01 09:12",
			PhotoCategory: "品質管理写真",
			WorkType:      "舗装工",
			Variety:       "表層工",
			Subphase:      "温度測定",
			Station:       "No.10+50",
			Remarks:       "到着温度",
			Measurements:  "到着温度 156.0℃",
		},
		Provenance: domain.ProvenanceMaster,
	}
}

func TestBuildDeclarationGeometry(t *testing.T) {
	records := []domain.ClassifiedRecord{
		ledgerRecord("p1.jpg"), ledgerRecord("p2.jpg"), ledgerRecord("p3.jpg"),
	}
	plan := layout.Plan(records, layout.ThreeUp())

	decl, err := BuildDeclaration(plan, Options{})
	require.NoError(t, err)

	assert.Equal(t, "A4", decl.Paper)
	assert.Empty(t, decl.MediaBox)
	require.Len(t, decl.Pages, 1)

	page := decl.Pages["1"]
	require.NotNil(t, page)

	// One frame for the photo and one for the info panel per cell.
	require.Len(t, page.Content.Boxes, 6)
	photo := page.Content.Boxes[0]
	assert.InDelta(t, layout.MMToPt(123.5), photo.Width, 0.05)
	assert.InDelta(t, layout.MMToPt(85.67), photo.Height, 0.05)
	assert.Equal(t, 1, photo.Border.Width)

	cell := plan.Pages[0].Cells[0]
	wantY := layout.MMToPt(layout.A4HeightMM - cell.PhotoRect.Y - cell.PhotoRect.Height)
	assert.InDelta(t, wantY, photo.Position[1], 1e-6)
	assert.InDelta(t, layout.MMToPt(10), photo.Position[0], 1e-6)

	require.Len(t, page.Content.Images, 3)
	assert.Equal(t, "/photos/p1.jpg", page.Content.Images[0].Src)
	assert.Equal(t, photo.Position, page.Content.Images[0].Position)
	assert.InDelta(t, photo.Width, page.Content.Images[0].Width, 1e-9)

	// Lower slots sit lower on the page.
	info := page.Content.Boxes[1]
	assert.Greater(t, info.Position[0], photo.Position[0])
	secondPhoto := page.Content.Boxes[2]
	assert.Less(t, secondPhoto.Position[1], photo.Position[1])
}

func TestBuildDeclarationHeaderAndFields(t *testing.T) {
	plan := layout.Plan([]domain.ClassifiedRecord{ledgerRecord("a.jpg")}, layout.TwoUp())

	decl, err := BuildDeclaration(plan, Options{Title: "市道1号線舗装補修工事", FontName: "NotoSansJP-Regular"})
	require.NoError(t, err)

	texts := decl.Pages["1"].Content.Texts
	require.NotEmpty(t, texts)

	assert.Equal(t, "市道1号線舗装補修工事", texts[0].Value)
	assert.InDelta(t, layout.MMToPt(10), texts[0].Position[0], 1e-6)
	assert.Equal(t, "Page 1 / 1", texts[1].Value)

	values := make([]string, 0, len(texts))
	for _, tx := range texts {
		assert.Equal(t, "NotoSansJP-Regular", tx.Font.Name)
		assert.Equal(t, 12, tx.Font.Size)
		values = append(values, tx.Value)
	}
	assert.Contains(t, values, "測点:")
	assert.Contains(t, values, "No.10+50")
	assert.Contains(t, values, "備考:")
	assert.Contains(t, values, "到着温度")

	assert.Equal(t, "a.jpg", texts[len(texts)-1].Value)
}

func TestBuildDeclarationMultiPage(t *testing.T) {
	records := []domain.ClassifiedRecord{
		ledgerRecord("a.jpg"), ledgerRecord("b.jpg"), ledgerRecord("c.jpg"),
	}
	plan := layout.Plan(records, layout.TwoUp())

	decl, err := BuildDeclaration(plan, Options{})
	require.NoError(t, err)
	require.Len(t, decl.Pages, 2)

	second := decl.Pages["2"]
	require.NotNil(t, second)
	assert.Len(t, second.Content.Images, 1)

	var pageLabel string
	for _, tx := range second.Content.Texts {
		if strings.HasPrefix(tx.Value, "Page ") {
			pageLabel = tx.Value
		}
	}
	assert.Equal(t, "Page 2 / 2", pageLabel)
}

func TestBuildDeclarationWrappedValueLines(t *testing.T) {
	rec := ledgerRecord("a.jpg")
	rec.Measurements = "到着温度 156.0℃、敷均し温度 145.2℃、初期締固め温度 132.8℃、転圧回数 6回"
	plan := layout.Plan([]domain.ClassifiedRecord{rec}, layout.ThreeUp())

	decl, err := BuildDeclaration(plan, Options{})
	require.NoError(t, err)

	texts := decl.Pages["1"].Content.Texts
	var lines []TextDecl
	for _, tx := range texts {
		if strings.Contains(tx.Value, "温度") && !strings.HasSuffix(tx.Value, ":") {
			lines = append(lines, tx)
		}
	}
	require.NotEmpty(t, lines)

	last := lines[len(lines)-1]
	assert.True(t, strings.HasSuffix(last.Value, layout.Ellipsis))

	// Wrapped lines of one field step downward in PDF space.
	var meas []TextDecl
	for i := 1; i < len(lines); i++ {
		if lines[i].Position[0] == lines[i-1].Position[0] && lines[i].Position[1] < lines[i-1].Position[1] {
			meas = append(meas, lines[i-1], lines[i])
		}
	}
	assert.NotEmpty(t, meas)
}

func TestBuildDeclarationCustomPageSize(t *testing.T) {
	cfg := layout.Config{PageWidthMM: 200, PageHeightMM: 280, PhotosPerPage: 3}
	plan := layout.Plan([]domain.ClassifiedRecord{ledgerRecord("a.jpg")}, cfg)

	decl, err := BuildDeclaration(plan, Options{})
	require.NoError(t, err)

	assert.Empty(t, decl.Paper)
	require.Len(t, decl.MediaBox, 4)
	assert.InDelta(t, layout.MMToPt(200), decl.MediaBox[2], 1e-6)
	assert.InDelta(t, layout.MMToPt(280), decl.MediaBox[3], 1e-6)
}

func TestStageImagesResolvesObjectKeys(t *testing.T) {
	rec := ledgerRecord("IMG_0001.jpg")
	rec.FilePath = "site-photos/2026-07/IMG_0001.jpg"
	other := ledgerRecord("IMG_0002.jpg")
	other.FilePath = "site-photos/2026-07/IMG_0002.jpg"
	plan := layout.Plan([]domain.ClassifiedRecord{rec, other, rec}, layout.ThreeUp())

	decl, err := BuildDeclaration(plan, Options{})
	require.NoError(t, err)

	loaded := make(map[string]int)
	loader := func(filePath string) (*Image, error) {
		loaded[filePath]++
		return &Image{Data: []byte("bytes of " + filePath), Extension: ".jpg"}, nil
	}

	dir := t.TempDir()
	require.NoError(t, stageImages(decl, loader, dir))

	images := decl.Pages["1"].Content.Images
	require.Len(t, images, 3)
	for _, img := range images {
		assert.True(t, strings.HasPrefix(img.Src, dir), "src %q not staged under %q", img.Src, dir)
		_, err := os.Stat(img.Src)
		assert.NoError(t, err)
	}
	// The repeated record reuses its staged copy.
	assert.Equal(t, images[0].Src, images[2].Src)
	assert.NotEqual(t, images[0].Src, images[1].Src)
	assert.Equal(t, 1, loaded["site-photos/2026-07/IMG_0001.jpg"])
	assert.Equal(t, 1, loaded["site-photos/2026-07/IMG_0002.jpg"])

	data, err := os.ReadFile(images[1].Src)
	require.NoError(t, err)
	assert.Equal(t, "bytes of site-photos/2026-07/IMG_0002.jpg", string(data))
}

func TestStageImagesFailsOnUnreadablePhoto(t *testing.T) {
	plan := layout.Plan([]domain.ClassifiedRecord{ledgerRecord("a.jpg")}, layout.ThreeUp())
	decl, err := BuildDeclaration(plan, Options{})
	require.NoError(t, err)

	loader := func(string) (*Image, error) {
		return nil, errors.New("object not found")
	}
	err = stageImages(decl, loader, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/photos/a.jpg")
}

func TestBuildDeclarationEmptyPlan(t *testing.T) {
	_, err := BuildDeclaration(nil, Options{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	_, err = BuildDeclaration(layout.Plan(nil, layout.ThreeUp()), Options{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	_, err = Render(nil, Options{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
}
