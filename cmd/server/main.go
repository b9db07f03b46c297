package main

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"daicho/internal/config"
	"daicho/internal/email/noop"
	"daicho/internal/email/ses"
	"daicho/internal/handler"
	"daicho/internal/port"
	"daicho/internal/recognize"
	_ "daicho/internal/recognize/claude"
	_ "daicho/internal/recognize/gemini"
	_ "daicho/internal/recognize/openai"
	"daicho/internal/repository/postgres"
	"daicho/internal/router"
	"daicho/internal/service"
	s3storage "daicho/internal/storage/s3"
	"daicho/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Persistence is optional. Without a database the stateless
	// pipeline endpoints still work; run endpoints refuse.
	var db *sqlx.DB
	var runRepo port.RunRepository
	var recordRepo port.RecordRepository
	var correctionRepo port.CorrectionRepository
	var masterRepo port.MasterRepository
	if cfg.DB.Configured() {
		db, err = postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		runRepo = postgres.NewRunRepo(db)
		recordRepo = postgres.NewRecordRepo(db)
		correctionRepo = postgres.NewCorrectionRepo(db)
		masterRepo = postgres.NewMasterRepo(db)
	} else {
		log.Println("no database configured, run endpoints disabled")
	}

	// Object storage serves s3:// photo sources and artifact uploads.
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	recognizer, err := recognize.FromConfig(&cfg.Recognizer)
	if err != nil {
		return fmt.Errorf("failed to initialize recognizer: %w", err)
	}

	var emailSender port.EmailSender
	if cfg.Email.Provider == "ses" {
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	} else {
		emailSender = noop.NewNoopSender()
	}

	// Initialize services
	engine := validator.NewDefaultEngine()
	tokenSvc := service.NewTokenService(cfg.JWT)
	masterSvc := service.NewMasterService(masterRepo, cfg.Master, engine)
	pipelineSvc := service.NewPipelineService(cfg, masterSvc, recognizer, storage)
	runSvc := service.NewRunService(cfg, runRepo, recordRepo, correctionRepo, pipelineSvc, tokenSvc, storage, emailSender)

	// Initialize handlers
	healthH := handler.NewHealthHandler(db)
	pipelineH := handler.NewPipelineHandler(pipelineSvc)
	masterH := handler.NewMasterHandler(masterSvc)
	runH := handler.NewRunHandler(runSvc)
	artifactH := handler.NewArtifactHandler(tokenSvc, storage)

	// Setup router
	r := router.Setup(cfg, healthH, pipelineH, masterH, runH, artifactH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
