package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"daicho/internal/config"
	"daicho/internal/domain"
	"daicho/internal/service"
	"daicho/mocks"
)

func runTestConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			Title:         "工事写真台帳",
			PhotosPerPage: 3,
		},
		S3:  config.S3Config{Bucket: "photos-bucket"},
		JWT: config.JWTConfig{Secret: "test-secret", ArtifactExpiry: time.Hour},
	}
}

func TestRunService_PersistenceDisabled(t *testing.T) {
	svc := service.NewRunService(runTestConfig(), nil, nil, nil, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &service.CreateRunInput{Source: "s3://photos-bucket/site-a"})
	assert.ErrorIs(t, err, domain.ErrPersistenceDisabled)

	_, err = svc.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrPersistenceDisabled)

	_, _, err = svc.List(ctx, 0, 20)
	assert.ErrorIs(t, err, domain.ErrPersistenceDisabled)

	_, _, err = svc.ExportRecordsCSV(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrPersistenceDisabled)
}

func TestRunService_CreateReturnsPendingRun(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	runRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Run) bool {
		return r.Status == domain.RunStatusPending && r.Source == "s3://photos-bucket/site-a"
	})).Return(nil)
	// The background goroutine may or may not reach the repo before the
	// test ends; let it bail out either way.
	runRepo.On("GetByID", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound).Maybe()

	svc := service.NewRunService(runTestConfig(), runRepo, nil, nil, nil, nil, nil, nil)
	run, err := svc.Create(context.Background(), &service.CreateRunInput{
		Source: "s3://photos-bucket/site-a",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPending, run.Status)
	assert.Equal(t, "工事写真台帳", run.Title)
	assert.Equal(t, 3, run.PhotosPerPage)
	runRepo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunService_ArtifactDownloads(t *testing.T) {
	tokens := new(mocks.MockTokenService)
	expiry := time.Now().Add(time.Hour)
	tokens.On("IssueArtifactToken", mock.Anything).Return("signed-token", expiry, nil)

	storage := new(mocks.MockObjectStorage)
	svc := service.NewRunService(runTestConfig(), new(mocks.MockRunRepo), nil, nil, nil, tokens, storage, nil)

	run := &domain.Run{
		ID:     uuid.New(),
		Status: domain.RunStatusCompleted,
		Title:  "台帳",
	}
	downloads, err := svc.ArtifactDownloads(run)
	require.NoError(t, err)
	require.Len(t, downloads, 4)

	kinds := make(map[domain.ArtifactKind]bool)
	for _, d := range downloads {
		kinds[d.Artifact.Kind] = true
		assert.Equal(t, run.ID, d.Artifact.RunID)
		assert.Equal(t, "photos-bucket", d.Artifact.S3Bucket)
		assert.True(t, strings.HasPrefix(d.URL, "/api/v1/artifacts/"))
		assert.Contains(t, d.URL, "token=signed-token")
		assert.Equal(t, expiry, d.ExpiresAt)
	}
	assert.True(t, kinds[domain.ArtifactExcel])
	assert.True(t, kinds[domain.ArtifactPDF])
	assert.True(t, kinds[domain.ArtifactCSV])
	assert.True(t, kinds[domain.ArtifactJSON])
}

func TestRunService_ArtifactDownloads_Deterministic(t *testing.T) {
	tokens := new(mocks.MockTokenService)
	tokens.On("IssueArtifactToken", mock.Anything).Return("t", time.Now(), nil)
	storage := new(mocks.MockObjectStorage)
	svc := service.NewRunService(runTestConfig(), new(mocks.MockRunRepo), nil, nil, nil, tokens, storage, nil)

	run := &domain.Run{ID: uuid.New(), Status: domain.RunStatusCompleted}
	first, err := svc.ArtifactDownloads(run)
	require.NoError(t, err)
	second, err := svc.ArtifactDownloads(run)
	require.NoError(t, err)
	for i := range first {
		assert.Equal(t, first[i].Artifact.ID, second[i].Artifact.ID)
	}
}

func TestRunService_ArtifactDownloads_NotCompleted(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	svc := service.NewRunService(runTestConfig(), new(mocks.MockRunRepo), nil, nil, nil, nil, storage, nil)

	downloads, err := svc.ArtifactDownloads(&domain.Run{Status: domain.RunStatusProcessing})
	require.NoError(t, err)
	assert.Empty(t, downloads)
}

func TestRunService_ArtifactDownloads_NoStorage(t *testing.T) {
	svc := service.NewRunService(runTestConfig(), new(mocks.MockRunRepo), nil, nil, nil, nil, nil, nil)

	downloads, err := svc.ArtifactDownloads(&domain.Run{Status: domain.RunStatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, downloads)
}

func TestRunService_ExportRecordsCSV(t *testing.T) {
	runID := uuid.New()
	run := &domain.Run{
		ID:        runID,
		Status:    domain.RunStatusCompleted,
		Title:     "台帳",
		CreatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}

	rec := domain.ClassifiedRecord{
		RawRecord: domain.RawRecord{
			FileName: "IMG_0001.jpg",
			WorkType: "舗装工",
			Variety:  "舗装打換え工",
			Subphase: "表層工",
		},
		Provenance: domain.ProvenanceMaster,
	}
	payload, err := json.Marshal(&rec)
	require.NoError(t, err)

	runRepo := new(mocks.MockRunRepo)
	runRepo.On("GetByID", mock.Anything, runID).Return(run, nil)
	recordRepo := new(mocks.MockRecordRepo)
	recordRepo.On("ListByRun", mock.Anything, runID).Return([]domain.RecordEntry{
		{RunID: runID, FileName: "IMG_0001.jpg", Payload: payload},
	}, nil)

	svc := service.NewRunService(runTestConfig(), runRepo, recordRepo, nil, nil, nil, nil, nil)
	data, name, err := svc.ExportRecordsCSV(context.Background(), runID)
	require.NoError(t, err)
	assert.Contains(t, string(data), "IMG_0001.jpg")
	assert.Contains(t, string(data), "舗装工")
	assert.True(t, strings.HasSuffix(name, ".csv"), "filename %q", name)
}

func TestRunService_ExportRecordsCSV_NotCompleted(t *testing.T) {
	runID := uuid.New()
	runRepo := new(mocks.MockRunRepo)
	runRepo.On("GetByID", mock.Anything, runID).Return(&domain.Run{
		ID:     runID,
		Status: domain.RunStatusProcessing,
	}, nil)

	svc := service.NewRunService(runTestConfig(), runRepo, nil, nil, nil, nil, nil, nil)
	_, _, err := svc.ExportRecordsCSV(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrRunNotCompleted)
}

func TestRunService_ListRecordsChecksRun(t *testing.T) {
	runID := uuid.New()
	runRepo := new(mocks.MockRunRepo)
	runRepo.On("GetByID", mock.Anything, runID).Return(nil, domain.ErrNotFound)

	svc := service.NewRunService(runTestConfig(), runRepo, new(mocks.MockRecordRepo), nil, nil, nil, nil, nil)
	_, err := svc.ListRecords(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
