// Command seedmaster loads a hierarchy master file, validates it and
// upserts it into Postgres so the API can serve it by name.
// Usage: go run ./cmd/seedmaster -file masters/kanagawa-r6.csv [-name NAME] [-activate]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"daicho/internal/config"
	"daicho/internal/domain"
	"daicho/internal/repository/postgres"
	"daicho/internal/service"
	"daicho/internal/validator"
)

func main() {
	fileFlag := flag.String("file", "", "master source file (.json, .csv or .xlsx)")
	nameFlag := flag.String("name", "", "name to store the master under; defaults to the file name without extension")
	activateFlag := flag.Bool("activate", false, "make this the active master")
	flag.Parse()

	if *fileFlag == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(*fileFlag, *nameFlag, *activateFlag); err != nil {
		log.Fatal(err)
	}
}

func run(file, name string, activate bool) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
	format, ok := domain.MasterFormatExtensions[ext]
	if !ok {
		return fmt.Errorf("unsupported master extension %q; need .json, .csv or .xlsx", ext)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.DB.Configured() {
		return fmt.Errorf("seedmaster needs a database; set DAICHO_DB_HOST")
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	engine := validator.NewDefaultEngine()
	masters := service.NewMasterService(postgres.NewMasterRepo(db), cfg.Master, engine)

	report := masters.Validate(content, format)
	for _, f := range report.Findings {
		if !f.Passed {
			log.Printf("%s: %s (%s)", f.Severity, f.Message, f.RuleKey)
		}
	}
	if !report.Valid {
		return fmt.Errorf("master %s failed validation: %d errors", file, report.Errors)
	}

	master, err := masters.Upload(context.Background(), &service.UploadMasterInput{
		Name:     name,
		Format:   format,
		Content:  content,
		Activate: activate,
	})
	if err != nil {
		return fmt.Errorf("storing master: %w", err)
	}

	log.Printf("master %q stored (%d leaves, active=%v)", master.Name, master.LeafCount, master.IsActive)
	return nil
}
