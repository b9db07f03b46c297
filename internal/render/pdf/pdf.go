// Package pdf renders a placement plan into a photo-ledger PDF. It
// declares every page in pdfcpu's JSON create format, converting the
// plan's top-down millimeter geometry to bottom-up PDF points, then
// hands the declaration to pdfcpu and verifies the page count of the
// result.
package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"daicho/internal/domain"
	"daicho/internal/layout"
)

const frameColor = "#B2B2B2"

// Image is the raw content of one photo. Extension carries the dot,
// e.g. ".jpg".
type Image struct {
	Data      []byte
	Extension string
}

// ImageLoader resolves a record's file path to photo bytes. pdfcpu
// only embeds images from disk, so loaded photos are staged into a
// temporary directory for the duration of the render.
type ImageLoader func(filePath string) (*Image, error)

// Options configures a rendering.
type Options struct {
	// Title appears in each page header.
	Title string
	// FontName is the pdfcpu font used for all text. Japanese values
	// need an installed user font; the Helvetica default only covers
	// Latin text.
	FontName string
	// FontPath optionally names a TrueType file installed into
	// pdfcpu's user fonts before rendering.
	FontPath string
	// Images resolves record file paths to photo bytes. Required when
	// the paths are not local files (S3 object keys); a load failure
	// fails the render. Nil embeds the paths as-is.
	Images ImageLoader
}

func (o Options) withDefaults() Options {
	if o.FontName == "" {
		o.FontName = "Helvetica"
	}
	if o.Title == "" {
		o.Title = "工事写真台帳"
	}
	return o
}

// Declaration mirrors the subset of pdfcpu's page description format
// the renderer emits. All coordinates are PDF points with a
// bottom-left origin.
type Declaration struct {
	Paper    string               `json:"paper,omitempty"`
	MediaBox []float64            `json:"mediaBox,omitempty"`
	Pages    map[string]*PageDecl `json:"pages"`
}

// PageDecl is one declared page.
type PageDecl struct {
	Content *ContentDecl `json:"content"`
}

// ContentDecl holds a page's drawing primitives.
type ContentDecl struct {
	Texts  []TextDecl  `json:"text,omitempty"`
	Images []ImageDecl `json:"image,omitempty"`
	Boxes  []BoxDecl   `json:"box,omitempty"`
}

// TextDecl places one string at a baseline position.
type TextDecl struct {
	Value    string     `json:"value"`
	Position [2]float64 `json:"pos"`
	Font     FontDecl   `json:"font"`
}

// FontDecl names the font of a text primitive.
type FontDecl struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// ImageDecl places one image file fitted into a box.
type ImageDecl struct {
	Src      string     `json:"src"`
	Position [2]float64 `json:"pos"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
}

// BoxDecl strokes one rectangle.
type BoxDecl struct {
	Position [2]float64 `json:"pos"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Border   BorderDecl `json:"border"`
}

// BorderDecl is a box border.
type BorderDecl struct {
	Width int    `json:"width"`
	Color string `json:"col"`
}

// Render produces the PDF bytes for plan.
func Render(plan *layout.PlacementPlan, opts Options) ([]byte, error) {
	decl, err := BuildDeclaration(plan, opts)
	if err != nil {
		return nil, err
	}

	if opts.Images != nil {
		dir, err := os.MkdirTemp("", "ledger-pdf-")
		if err != nil {
			return nil, fmt.Errorf("stage photos: %w", err)
		}
		defer os.RemoveAll(dir)
		if err := stageImages(decl, opts.Images, dir); err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(decl)
	if err != nil {
		return nil, fmt.Errorf("marshal page declaration: %w", err)
	}

	if opts.FontPath != "" {
		if err := api.InstallFonts([]string{opts.FontPath}); err != nil {
			return nil, fmt.Errorf("install font %q: %w", opts.FontPath, err)
		}
	}

	var buf bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(data), &buf, nil); err != nil {
		return nil, fmt.Errorf("create pdf: %w", err)
	}

	count, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		return nil, fmt.Errorf("verify pdf: %w", err)
	}
	if count != len(plan.Pages) {
		return nil, fmt.Errorf("pdf has %d pages, plan has %d", count, len(plan.Pages))
	}
	return buf.Bytes(), nil
}

// BuildDeclaration converts a placement plan into a pdfcpu page
// declaration. It is pure, so tests can pin the emitted geometry
// without producing a PDF.
func BuildDeclaration(plan *layout.PlacementPlan, opts Options) (*Declaration, error) {
	if plan == nil || len(plan.Pages) == 0 {
		return nil, fmt.Errorf("declare pdf pages: %w", domain.ErrEmptyBatch)
	}
	opts = opts.withDefaults()
	cfg := plan.Config

	decl := &Declaration{Pages: make(map[string]*PageDecl, len(plan.Pages))}
	if cfg.PageWidthMM == layout.A4WidthMM && cfg.PageHeightMM == layout.A4HeightMM {
		decl.Paper = "A4"
	} else {
		decl.MediaBox = []float64{0, 0, layout.MMToPt(cfg.PageWidthMM), layout.MMToPt(cfg.PageHeightMM)}
	}

	font := FontDecl{Name: opts.FontName, Size: int(cfg.FontSizePt)}
	pageH := cfg.PageHeightMM
	marginPt := layout.MMToPt(cfg.MarginMM)
	pageWPt := layout.MMToPt(cfg.PageWidthMM)
	pageHPt := layout.MMToPt(pageH)

	for _, page := range plan.Pages {
		content := &ContentDecl{}

		headerY := pageHPt - marginPt - 20
		content.Texts = append(content.Texts,
			TextDecl{Value: opts.Title, Position: [2]float64{marginPt, headerY}, Font: font},
			TextDecl{
				Value:    fmt.Sprintf("Page %d / %d", page.Number, len(plan.Pages)),
				Position: [2]float64{pageWPt - marginPt - 80, headerY},
				Font:     font,
			},
		)

		for _, cell := range page.Cells {
			photo := rectDecl(cell.PhotoRect, pageH)
			info := rectDecl(cell.InfoRect, pageH)
			content.Boxes = append(content.Boxes, photo, info)

			if cell.Record.FilePath != "" {
				content.Images = append(content.Images, ImageDecl{
					Src:      cell.Record.FilePath,
					Position: photo.Position,
					Width:    photo.Width,
					Height:   photo.Height,
				})
			}

			for _, field := range cell.Fields {
				content.Texts = append(content.Texts, TextDecl{
					Value:    field.Label + ":",
					Position: point(field.LabelX, field.Y, pageH),
					Font:     font,
				})
				for i, line := range field.Lines {
					content.Texts = append(content.Texts, TextDecl{
						Value:    line,
						Position: point(field.ValueX, field.Y+float64(i)*field.LineStep, pageH),
						Font:     font,
					})
				}
			}

			content.Texts = append(content.Texts, TextDecl{
				Value:    cell.Record.FileName,
				Position: point(cell.FileLabelX, cell.FileLabelY, pageH),
				Font:     font,
			})
		}

		decl.Pages[strconv.Itoa(page.Number)] = &PageDecl{Content: content}
	}
	return decl, nil
}

// stageImages loads every declared photo and rewrites its src to a
// file under dir, one staged copy per distinct source path. A photo
// that fails to load fails the render rather than leaving a silently
// empty frame.
func stageImages(decl *Declaration, load ImageLoader, dir string) error {
	staged := make(map[string]string)
	for _, page := range decl.Pages {
		images := page.Content.Images
		for i := range images {
			src := images[i].Src
			path, ok := staged[src]
			if !ok {
				img, err := load(src)
				if err != nil {
					return fmt.Errorf("load photo %q: %w", src, err)
				}
				if img == nil || len(img.Data) == 0 {
					return fmt.Errorf("load photo %q: no image data", src)
				}
				path = filepath.Join(dir, fmt.Sprintf("photo%04d%s", len(staged)+1, img.Extension))
				if err := os.WriteFile(path, img.Data, 0o600); err != nil {
					return fmt.Errorf("stage photo %q: %w", src, err)
				}
				staged[src] = path
			}
			images[i].Src = path
		}
	}
	return nil
}

// point converts a top-down millimeter position to bottom-up points.
func point(xMM, yMM, pageHeightMM float64) [2]float64 {
	return [2]float64{layout.MMToPt(xMM), layout.MMToPt(pageHeightMM - yMM)}
}

// rectDecl converts a top-down rectangle to a stroked box anchored at
// its bottom-left corner.
func rectDecl(r layout.Rect, pageHeightMM float64) BoxDecl {
	return BoxDecl{
		Position: [2]float64{layout.MMToPt(r.X), layout.MMToPt(pageHeightMM - r.Y - r.Height)},
		Width:    layout.MMToPt(r.Width),
		Height:   layout.MMToPt(r.Height),
		Border:   BorderDecl{Width: 1, Color: frameColor},
	}
}
