package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"daicho/internal/config"
	"daicho/internal/csvexport"
	"daicho/internal/domain"
	"daicho/internal/port"
)

// defaultRunTimeout bounds one background run, recognition calls
// included.
const defaultRunTimeout = 30 * time.Minute

// runArtifacts lists the kinds every completed run produces.
var runArtifacts = []domain.ArtifactKind{
	domain.ArtifactExcel,
	domain.ArtifactPDF,
	domain.ArtifactCSV,
	domain.ArtifactJSON,
}

// CreateRunInput is the DTO for starting a persisted pipeline run.
type CreateRunInput struct {
	Source        string  `json:"source" binding:"required"`
	MasterName    string  `json:"masterName"`
	Title         string  `json:"title"`
	PhotosPerPage int     `json:"photosPerPage" binding:"omitempty,oneof=2 3"`
	AliasPreset   string  `json:"aliasPreset"`
	Threshold     float64 `json:"threshold" binding:"omitempty,gt=0,lte=1"`
	NotifyEmail   string  `json:"notifyEmail" binding:"omitempty,email"`
}

// ArtifactDownload pairs a derived artifact descriptor with a signed
// download link.
type ArtifactDownload struct {
	Artifact  domain.Artifact `json:"artifact"`
	URL       string          `json:"url"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// RunService persists pipeline runs and their results. Every method
// needs the database; deployments without one get
// domain.ErrPersistenceDisabled.
type RunService interface {
	Create(ctx context.Context, input *CreateRunInput) (*domain.Run, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, offset, limit int) ([]domain.Run, int, error)
	ListRecords(ctx context.Context, runID uuid.UUID) ([]domain.RecordEntry, error)
	ListCorrections(ctx context.Context, runID uuid.UUID) ([]domain.Correction, error)
	ExportRecordsCSV(ctx context.Context, runID uuid.UUID) ([]byte, string, error)
	ArtifactDownloads(run *domain.Run) ([]ArtifactDownload, error)
}

type runService struct {
	cfg            *config.Config
	runRepo        port.RunRepository
	recordRepo     port.RecordRepository
	correctionRepo port.CorrectionRepository
	pipeline       PipelineService
	tokens         TokenService
	storage        port.ObjectStorage // nil skips artifact upload
	email          port.EmailSender   // nil skips notifications
}

// NewRunService creates a new RunService implementation. The repos may
// be nil when persistence is disabled; every method then refuses with
// domain.ErrPersistenceDisabled.
func NewRunService(
	cfg *config.Config,
	runRepo port.RunRepository,
	recordRepo port.RecordRepository,
	correctionRepo port.CorrectionRepository,
	pipeline PipelineService,
	tokens TokenService,
	storage port.ObjectStorage,
	email port.EmailSender,
) RunService {
	return &runService{
		cfg:            cfg,
		runRepo:        runRepo,
		recordRepo:     recordRepo,
		correctionRepo: correctionRepo,
		pipeline:       pipeline,
		tokens:         tokens,
		storage:        storage,
		email:          email,
	}
}

func (s *runService) persistence() error {
	if s.runRepo == nil {
		return domain.ErrPersistenceDisabled
	}
	return nil
}

func (s *runService) Create(ctx context.Context, input *CreateRunInput) (*domain.Run, error) {
	if err := s.persistence(); err != nil {
		return nil, err
	}

	title := input.Title
	if title == "" {
		title = s.cfg.Pipeline.Title
	}
	perPage := input.PhotosPerPage
	if perPage == 0 {
		perPage = s.cfg.Pipeline.PhotosPerPage
	}

	run := &domain.Run{
		ID:            uuid.New(),
		Status:        domain.RunStatusPending,
		Source:        input.Source,
		MasterName:    input.MasterName,
		Title:         title,
		PhotosPerPage: perPage,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	log.Printf("runService.Create: run %s accepted for %s", run.ID, run.Source)

	// Copy before launching the goroutine so the caller's value is
	// independent of background work.
	result := *run
	go s.executeInBackground(run.ID, input)

	return &result, nil
}

func (s *runService) executeInBackground(runID uuid.UUID, input *CreateRunInput) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		log.Printf("runService.executeInBackground: failed to get run %s: %v", runID, err)
		return
	}
	run.Status = domain.RunStatusProcessing
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("runService.executeInBackground: failed to set processing status for %s: %v", runID, err)
		return
	}

	result, err := s.pipeline.Execute(ctx, &RunPipelineInput{
		Source:        run.Source,
		MasterName:    run.MasterName,
		PhotosPerPage: run.PhotosPerPage,
		Title:         run.Title,
		AliasPreset:   input.AliasPreset,
		Threshold:     input.Threshold,
	})
	if err != nil {
		s.failRun(ctx, run, fmt.Sprintf("executing pipeline: %v", err), input.NotifyEmail)
		return
	}

	if err := s.storeResults(ctx, run, result); err != nil {
		s.failRun(ctx, run, fmt.Sprintf("storing results: %v", err), input.NotifyEmail)
		return
	}

	if err := s.uploadArtifacts(ctx, run, result.Artifacts); err != nil {
		s.failRun(ctx, run, fmt.Sprintf("uploading artifacts: %v", err), input.NotifyEmail)
		return
	}

	now := time.Now().UTC()
	run.Status = domain.RunStatusCompleted
	run.RecordCount = result.Summary.Total
	run.MatchedCount = result.Summary.Matched
	run.UnmatchedCount = result.Summary.Unmatched
	run.AmbiguousSets = result.Stats.AmbiguousSets
	run.CorrectionCount = len(result.Corrections)
	run.ErrorMessage = ""
	run.CompletedAt = &now
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("runService.executeInBackground: failed to complete run %s: %v", run.ID, err)
		return
	}

	log.Printf("runService: run %s completed (%d records, %d corrections)",
		run.ID, run.RecordCount, run.CorrectionCount)
	s.notifyCompleted(ctx, run, input.NotifyEmail)
}

func (s *runService) storeResults(ctx context.Context, run *domain.Run, result *PipelineResult) error {
	entries := make([]domain.RecordEntry, 0, len(result.Records))
	for i := range result.Records {
		rec := &result.Records[i]
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", rec.FileName, err)
		}
		entries = append(entries, domain.RecordEntry{
			ID:         uuid.New(),
			RunID:      run.ID,
			Seq:        i,
			FileName:   rec.FileName,
			WorkType:   rec.WorkType,
			Variety:    rec.Variety,
			Subphase:   rec.Subphase,
			Station:    rec.Station,
			Provenance: rec.Provenance,
			Payload:    payload,
		})
	}
	if err := s.recordRepo.CreateBatch(ctx, entries); err != nil {
		return err
	}

	corrections := make([]domain.Correction, len(result.Corrections))
	copy(corrections, result.Corrections)
	for i := range corrections {
		corrections[i].RunID = run.ID
		if corrections[i].ID == uuid.Nil {
			corrections[i].ID = uuid.New()
		}
	}
	return s.correctionRepo.CreateBatch(ctx, corrections)
}

func (s *runService) uploadArtifacts(ctx context.Context, run *domain.Run, artifacts []RenderedArtifact) error {
	if s.storage == nil {
		log.Printf("runService: run %s rendered %d artifacts, upload skipped (no storage configured)",
			run.ID, len(artifacts))
		return nil
	}
	for _, art := range artifacts {
		desc := s.artifactFor(run, art.Kind)
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      desc.S3Bucket,
			Key:         desc.S3Key,
			Body:        bytes.NewReader(art.Data),
			ContentType: desc.ContentType,
			Size:        int64(len(art.Data)),
		})
		if err != nil {
			return fmt.Errorf("uploading %s: %v: %w", desc.S3Key, err, domain.ErrUploadFailed)
		}
	}
	return nil
}

func (s *runService) failRun(ctx context.Context, run *domain.Run, errMsg, notifyEmail string) {
	log.Printf("runService.failRun: run %s failed: %s", run.ID, errMsg)
	run.Status = domain.RunStatusFailed
	run.ErrorMessage = errMsg
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("runService.failRun: failed to update status for %s: %v", run.ID, err)
	}

	if s.email == nil || notifyEmail == "" {
		return
	}
	if err := s.email.SendRunFailedEmail(ctx, notifyEmail, run.ID.String(), errMsg); err != nil {
		log.Printf("runService.failRun: failed to send notification for %s: %v", run.ID, err)
	}
}

func (s *runService) notifyCompleted(ctx context.Context, run *domain.Run, notifyEmail string) {
	if s.email == nil || notifyEmail == "" {
		return
	}

	downloadURL := ""
	downloads, err := s.ArtifactDownloads(run)
	if err != nil {
		log.Printf("runService.notifyCompleted: %v", err)
	}
	for _, d := range downloads {
		if d.Artifact.Kind == domain.ArtifactExcel {
			downloadURL = s.cfg.Email.BaseURL + d.URL
			break
		}
	}

	if err := s.email.SendRunCompletedEmail(ctx, notifyEmail, run.ID.String(), downloadURL); err != nil {
		log.Printf("runService.notifyCompleted: failed to send notification for %s: %v", run.ID, err)
	}
}

// artifactFor derives the stable descriptor of a run output. The ID is
// a v5 UUID of the run ID and kind, so descriptors and download links
// can be rebuilt at any time without an artifacts table.
func (s *runService) artifactFor(run *domain.Run, kind domain.ArtifactKind) domain.Artifact {
	return domain.Artifact{
		ID:          uuid.NewSHA1(run.ID, []byte(kind)),
		RunID:       run.ID,
		Kind:        kind,
		FileName:    ArtifactFileName(run.Title, kind, run.CreatedAt),
		ContentType: domain.ArtifactContentTypes[kind],
		S3Bucket:    s.cfg.S3.Bucket,
		S3Key:       fmt.Sprintf("runs/%s/ledger.%s", run.ID, kind),
		CreatedAt:   run.CreatedAt,
	}
}

// ArtifactDownloads rebuilds the artifact descriptors of a completed
// run and signs a download link for each. Runs without storage
// configured have nothing to download.
func (s *runService) ArtifactDownloads(run *domain.Run) ([]ArtifactDownload, error) {
	if run.Status != domain.RunStatusCompleted || s.storage == nil {
		return nil, nil
	}

	downloads := make([]ArtifactDownload, 0, len(runArtifacts))
	for _, kind := range runArtifacts {
		art := s.artifactFor(run, kind)
		token, expiresAt, err := s.tokens.IssueArtifactToken(&art)
		if err != nil {
			return nil, fmt.Errorf("signing download link for %s: %w", art.ID, err)
		}
		downloads = append(downloads, ArtifactDownload{
			Artifact:  art,
			URL:       fmt.Sprintf("/api/v1/artifacts/%s?token=%s", art.ID, token),
			ExpiresAt: expiresAt,
		})
	}
	return downloads, nil
}

func (s *runService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	if err := s.persistence(); err != nil {
		return nil, err
	}
	return s.runRepo.GetByID(ctx, id)
}

func (s *runService) List(ctx context.Context, offset, limit int) ([]domain.Run, int, error) {
	if err := s.persistence(); err != nil {
		return nil, 0, err
	}
	return s.runRepo.List(ctx, offset, limit)
}

func (s *runService) ListRecords(ctx context.Context, runID uuid.UUID) ([]domain.RecordEntry, error) {
	if err := s.persistence(); err != nil {
		return nil, err
	}
	if _, err := s.runRepo.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	return s.recordRepo.ListByRun(ctx, runID)
}

func (s *runService) ListCorrections(ctx context.Context, runID uuid.UUID) ([]domain.Correction, error) {
	if err := s.persistence(); err != nil {
		return nil, err
	}
	if _, err := s.runRepo.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	return s.correctionRepo.ListByRun(ctx, runID)
}

// ExportRecordsCSV rebuilds the records CSV from the stored payloads
// and returns it with its download name.
func (s *runService) ExportRecordsCSV(ctx context.Context, runID uuid.UUID) ([]byte, string, error) {
	if err := s.persistence(); err != nil {
		return nil, "", err
	}
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	if run.Status != domain.RunStatusCompleted {
		return nil, "", domain.ErrRunNotCompleted
	}

	entries, err := s.recordRepo.ListByRun(ctx, runID)
	if err != nil {
		return nil, "", err
	}

	records := make([]domain.ClassifiedRecord, 0, len(entries))
	for _, entry := range entries {
		var rec domain.ClassifiedRecord
		if err := json.Unmarshal(entry.Payload, &rec); err != nil {
			return nil, "", fmt.Errorf("decoding record %s: %w", entry.FileName, err)
		}
		records = append(records, rec)
	}

	var buf bytes.Buffer
	if err := csvexport.ExportRecords(&buf, records); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ArtifactFileName(run.Title, domain.ArtifactCSV, run.CreatedAt), nil
}
