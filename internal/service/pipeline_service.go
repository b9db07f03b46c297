package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"daicho/internal/alias"
	"daicho/internal/classify"
	"daicho/internal/config"
	"daicho/internal/csvexport"
	"daicho/internal/detect"
	"daicho/internal/domain"
	"daicho/internal/layout"
	"daicho/internal/normalize"
	"daicho/internal/port"
	"daicho/internal/recognize"
	"daicho/internal/render/excel"
	"daicho/internal/render/pdf"
	"daicho/internal/scan"
)

// RunPipelineInput is the DTO for one pipeline pass. Source is a local
// folder path or an s3://bucket/prefix location. Zero values fall back
// to the configured defaults.
type RunPipelineInput struct {
	Source        string
	MasterName    string
	PhotosPerPage int
	Title         string
	AliasPreset   string
	AliasFile     string
	Threshold     float64
}

// RenderedArtifact is one output a pipeline pass produced, still in
// memory.
type RenderedArtifact struct {
	Kind        domain.ArtifactKind
	FileName    string
	ContentType string
	Data        []byte
}

// PipelineResult carries everything one pass produced. Artifacts is
// empty after Analyze and filled after Execute.
type PipelineResult struct {
	Records     []domain.ClassifiedRecord `json:"records"`
	Corrections []domain.Correction       `json:"corrections"`
	Sets        []domain.PhotoSet         `json:"sets"`
	Stats       normalize.Stats           `json:"stats"`
	Summary     classify.Summary          `json:"summary"`
	Artifacts   []RenderedArtifact        `json:"-"`
}

// PipelineService runs the ledger pipeline: photo listing, vision
// recognition, classification, normalization, alias rewriting, layout
// and rendering. It holds no run state; persistence is the run
// service's concern.
type PipelineService interface {
	Analyze(ctx context.Context, input *RunPipelineInput) (*PipelineResult, error)
	Execute(ctx context.Context, input *RunPipelineInput) (*PipelineResult, error)
	ClassifyRecords(ctx context.Context, masterName string, records []domain.RawRecord) ([]domain.ClassifiedRecord, classify.Summary, error)
	NormalizeRecords(records []domain.ClassifiedRecord, opts normalize.Options) normalize.Result
	PlanLayout(records []domain.ClassifiedRecord, photosPerPage int) (*layout.PlacementPlan, error)
}

type pipelineService struct {
	cfg        *config.Config
	masters    MasterService
	recognizer port.PhotoRecognizer
	storage    port.ObjectStorage // nil when S3 is not configured
}

// NewPipelineService creates a new PipelineService implementation.
// storage may be nil; s3:// sources then fail with a clear error.
func NewPipelineService(cfg *config.Config, masters MasterService, recognizer port.PhotoRecognizer, storage port.ObjectStorage) PipelineService {
	return &pipelineService{
		cfg:        cfg,
		masters:    masters,
		recognizer: recognizer,
		storage:    storage,
	}
}

// Analyze runs recognition through alias rewriting and returns the
// corrected batch without rendering anything.
func (s *pipelineService) Analyze(ctx context.Context, input *RunPipelineInput) (*PipelineResult, error) {
	result, _, err := s.analyze(ctx, input)
	return result, err
}

// Execute runs Analyze and then renders the workbook, the PDF, the
// records CSV and the result JSON.
func (s *pipelineService) Execute(ctx context.Context, input *RunPipelineInput) (*PipelineResult, error) {
	result, src, err := s.analyze(ctx, input)
	if err != nil {
		return nil, err
	}

	artifacts, err := s.render(ctx, src, result, input)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	return result, nil
}

func (s *pipelineService) analyze(ctx context.Context, input *RunPipelineInput) (*PipelineResult, photoSource, error) {
	src, err := s.sourceFor(input.Source)
	if err != nil {
		return nil, nil, err
	}

	photos, err := src.list(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(photos) == 0 {
		return nil, nil, fmt.Errorf("no photos under %q: %w", input.Source, domain.ErrEmptyBatch)
	}
	log.Printf("pipelineService: %d photos listed under %s", len(photos), input.Source)

	master, err := s.masters.Resolve(ctx, input.MasterName)
	if err != nil {
		return nil, nil, err
	}

	var hints port.VisionHints
	if master != nil {
		hints.WorkTypeTree = master.WorkTypeTree()
	}
	raws, err := s.recognizeAll(ctx, src, photos, hints)
	if err != nil {
		return nil, nil, err
	}

	// Narrow the master to the work types the batch actually shows, so
	// pattern scoring never matches against unrelated divisions. A nil
	// master skips narrowing; the batch passes through as raw.
	scoped := master
	if master != nil {
		if detected := detect.Detect(raws); len(detected) > 0 {
			if filtered := master.FilterByWorkTypes(detected); filtered.LeafCount() > 0 {
				scoped = filtered
			}
		}
	}

	classified, summary := classify.Batch(raws, scoped)

	opts := normalize.DefaultOptions()
	if input.Threshold > 0 {
		opts.Threshold = input.Threshold
	}
	normalized := normalize.RecordsWith(classified, opts)

	records := normalized.Records
	if aliasCfg, ok, err := s.aliasFor(input); err != nil {
		return nil, nil, err
	} else if ok {
		records = aliasCfg.Apply(records)
	}

	log.Printf("pipelineService: %d records classified (%d matched, %d unmatched, %d corrections)",
		summary.Total, summary.Matched, summary.Unmatched, len(normalized.Corrections))

	return &PipelineResult{
		Records:     records,
		Corrections: normalized.Corrections,
		Sets:        normalized.Sets,
		Stats:       normalized.Stats,
		Summary:     summary,
	}, src, nil
}

// recognizeAll fans photo batches out to the vision provider and joins
// the observations back onto the scanned files.
func (s *pipelineService) recognizeAll(ctx context.Context, src photoSource, photos []scan.Photo, hints port.VisionHints) ([]domain.RawRecord, error) {
	batchSize := s.cfg.Recognizer.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	batches := chunkPhotos(photos, batchSize)
	observations := make([][]port.Observation, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	concurrency := s.cfg.Pipeline.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			vision := make([]port.VisionPhoto, 0, len(batch))
			for _, p := range batch {
				data, err := src.read(gctx, p.FilePath)
				if err != nil {
					return fmt.Errorf("reading photo %s: %w", p.FileName, err)
				}
				vision = append(vision, port.VisionPhoto{
					FileName:    p.FileName,
					ContentType: domain.PhotoContentTypes[p.FileType],
					Date:        p.Date,
					FileBytes:   data,
				})
			}
			obs, err := s.recognizer.Recognize(gctx, vision, hints)
			if err != nil {
				return fmt.Errorf("recognizing batch %d/%d: %w", i+1, len(batches), err)
			}
			observations[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []port.Observation
	for _, obs := range observations {
		all = append(all, obs...)
	}
	return recognize.BuildRecords(photos, all), nil
}

func chunkPhotos(photos []scan.Photo, size int) [][]scan.Photo {
	var batches [][]scan.Photo
	for start := 0; start < len(photos); start += size {
		end := start + size
		if end > len(photos) {
			end = len(photos)
		}
		batches = append(batches, photos[start:end])
	}
	return batches
}

func (s *pipelineService) aliasFor(input *RunPipelineInput) (alias.Config, bool, error) {
	var cfg alias.Config
	have := false

	if input.AliasPreset != "" {
		preset, ok := alias.Preset(input.AliasPreset)
		if !ok {
			return alias.Config{}, false, fmt.Errorf("unknown alias preset %q (have %s)",
				input.AliasPreset, strings.Join(alias.PresetNames(), ", "))
		}
		cfg = preset
		have = true
	}
	if input.AliasFile != "" {
		fileCfg, err := alias.LoadFile(input.AliasFile)
		if err != nil {
			return alias.Config{}, false, err
		}
		if have {
			cfg = cfg.Merge(fileCfg)
		} else {
			cfg = fileCfg
		}
		have = true
	}
	return cfg, have, nil
}

func (s *pipelineService) render(ctx context.Context, src photoSource, result *PipelineResult, input *RunPipelineInput) ([]RenderedArtifact, error) {
	title := input.Title
	if title == "" {
		title = s.cfg.Pipeline.Title
	}
	perPage := input.PhotosPerPage
	if perPage == 0 {
		perPage = s.cfg.Pipeline.PhotosPerPage
	}

	plan := layout.Plan(result.Records, layout.ForPhotosPerPage(perPage))
	now := time.Now()

	// Both renderers read photos through the run's source, so S3 object
	// keys resolve the same way local paths do.
	read := func(filePath string) ([]byte, string, error) {
		data, err := src.read(ctx, filePath)
		if err != nil {
			return nil, "", err
		}
		ext := strings.ToLower(filepath.Ext(filePath))
		if ext == ".jpeg" {
			ext = ".jpg"
		}
		return data, ext, nil
	}

	renderer := &excel.Renderer{Images: func(filePath string) (*excel.Image, error) {
		data, ext, err := read(filePath)
		if err != nil {
			return nil, err
		}
		return &excel.Image{Data: data, Extension: ext}, nil
	}}
	xlsxData, err := renderer.Render(plan)
	if err != nil {
		return nil, fmt.Errorf("rendering workbook: %w", err)
	}

	pdfData, err := pdf.Render(plan, pdf.Options{
		Title:    title,
		FontName: s.cfg.Pipeline.FontName,
		FontPath: s.cfg.Pipeline.FontPath,
		Images: func(filePath string) (*pdf.Image, error) {
			data, ext, err := read(filePath)
			if err != nil {
				return nil, err
			}
			return &pdf.Image{Data: data, Extension: ext}, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}

	var csvBuf bytes.Buffer
	if err := csvexport.ExportRecords(&csvBuf, result.Records); err != nil {
		return nil, fmt.Errorf("exporting csv: %w", err)
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result json: %w", err)
	}

	artifacts := []RenderedArtifact{
		{Kind: domain.ArtifactExcel, Data: xlsxData},
		{Kind: domain.ArtifactPDF, Data: pdfData},
		{Kind: domain.ArtifactCSV, Data: csvBuf.Bytes()},
		{Kind: domain.ArtifactJSON, Data: jsonData},
	}
	for i := range artifacts {
		artifacts[i].FileName = ArtifactFileName(title, artifacts[i].Kind, now)
		artifacts[i].ContentType = domain.ArtifactContentTypes[artifacts[i].Kind]
	}
	return artifacts, nil
}

// ArtifactFileName builds the download name of one rendered output,
// "{sanitized title}_{date}.{ext}". The run service re-derives names
// from the run's creation time, so the same run always names its
// artifacts identically.
func ArtifactFileName(title string, kind domain.ArtifactKind, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", csvexport.SanitizeFilename(title), t.Format("2006-01-02"), kind)
}

func (s *pipelineService) ClassifyRecords(ctx context.Context, masterName string, records []domain.RawRecord) ([]domain.ClassifiedRecord, classify.Summary, error) {
	if len(records) == 0 {
		return nil, classify.Summary{}, domain.ErrEmptyBatch
	}
	master, err := s.masters.Resolve(ctx, masterName)
	if err != nil {
		return nil, classify.Summary{}, err
	}
	classified, summary := classify.Batch(records, master)
	return classified, summary, nil
}

func (s *pipelineService) NormalizeRecords(records []domain.ClassifiedRecord, opts normalize.Options) normalize.Result {
	return normalize.RecordsWith(records, opts)
}

func (s *pipelineService) PlanLayout(records []domain.ClassifiedRecord, photosPerPage int) (*layout.PlacementPlan, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if photosPerPage == 0 {
		photosPerPage = s.cfg.Pipeline.PhotosPerPage
	}
	return layout.Plan(records, layout.ForPhotosPerPage(photosPerPage)), nil
}

// photoSource abstracts where run photos come from, so the pipeline
// reads local folders and S3 prefixes the same way.
type photoSource interface {
	list(ctx context.Context) ([]scan.Photo, error)
	read(ctx context.Context, filePath string) ([]byte, error)
}

func (s *pipelineService) sourceFor(source string) (photoSource, error) {
	if bucket, prefix, ok := ParseS3Source(source); ok {
		if s.storage == nil {
			return nil, fmt.Errorf("source %q needs S3 but no storage is configured", source)
		}
		return &s3Source{storage: s.storage, bucket: bucket, prefix: prefix}, nil
	}
	return &folderSource{path: source}, nil
}

// ParseS3Source splits an s3://bucket/prefix location. ok is false for
// anything else, which callers treat as a local path.
func ParseS3Source(source string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(source, "s3://")
	if !found {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, prefix, bucket != ""
}

type folderSource struct {
	path string
}

func (f *folderSource) list(context.Context) ([]scan.Photo, error) {
	return scan.Folder(f.path)
}

func (f *folderSource) read(_ context.Context, filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

type s3Source struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
}

// list turns the objects under the prefix into scan photos. S3 keeps
// keys sorted, which matches the folder scan's name order. EXIF is not
// read here; the capture date falls back to the object's LastModified.
func (s *s3Source) list(ctx context.Context) ([]scan.Photo, error) {
	objects, err := s.storage.List(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, s.prefix, err)
	}

	photos := make([]scan.Photo, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		fileType, ok := domain.PhotoExtensions[ext]
		if !ok {
			continue
		}
		photos = append(photos, scan.Photo{
			FilePath: obj.Key,
			FileName: name,
			FileType: fileType,
			Date:     obj.LastModified.Format(scan.DateLayout),
		})
	}
	return photos, nil
}

func (s *s3Source) read(ctx context.Context, filePath string) ([]byte, error) {
	return s.storage.Download(ctx, s.bucket, filePath)
}
