// Command backfill re-classifies the stored records of completed runs
// against a hierarchy master. Useful after a master gains new leaf
// patterns: records that previously passed through as "raw" pick up
// their canonical path without re-running recognition.
// Usage: go run ./cmd/backfill [-run UUID] [-master NAME]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"daicho/internal/classify"
	"daicho/internal/config"
	"daicho/internal/detect"
	"daicho/internal/domain"
	"daicho/internal/hierarchy"
	"daicho/internal/port"
	"daicho/internal/repository/postgres"
	"daicho/internal/service"
	"daicho/internal/validator"
)

func main() {
	runFlag := flag.String("run", "", "re-classify a single run (UUID); empty processes every completed run")
	masterFlag := flag.String("master", "", "master name to classify against; empty uses the active or configured default")
	flag.Parse()

	if err := run(*runFlag, *masterFlag); err != nil {
		log.Fatal(err)
	}
}

func run(runID, masterName string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.DB.Configured() {
		return fmt.Errorf("backfill needs a database; set DAICHO_DB_HOST")
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	runRepo := postgres.NewRunRepo(db)
	recordRepo := postgres.NewRecordRepo(db)
	masterRepo := postgres.NewMasterRepo(db)
	masters := service.NewMasterService(masterRepo, cfg.Master, validator.NewDefaultEngine())

	ctx := context.Background()
	master, err := masters.Resolve(ctx, masterName)
	if err != nil {
		return fmt.Errorf("resolving master: %w", err)
	}
	if master == nil {
		return fmt.Errorf("no master to backfill against; seed one or pass -master")
	}

	var runs []domain.Run
	if runID != "" {
		id, err := uuid.Parse(runID)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", runID, err)
		}
		r, err := runRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading run %s: %w", id, err)
		}
		runs = []domain.Run{*r}
	} else {
		offset := 0
		for {
			page, _, err := runRepo.List(ctx, offset, 100)
			if err != nil {
				return fmt.Errorf("listing runs at offset %d: %w", offset, err)
			}
			if len(page) == 0 {
				break
			}
			runs = append(runs, page...)
			offset += len(page)
		}
	}

	totalUpdated := 0
	for i := range runs {
		r := &runs[i]
		if r.Status != domain.RunStatusCompleted {
			continue
		}
		updated, err := backfillRun(ctx, runRepo, recordRepo, r, master)
		if err != nil {
			log.Printf("WARN: skipping run %s: %v", r.ID, err)
			continue
		}
		if updated > 0 {
			log.Printf("run %s: %d of %d records re-classified", r.ID, updated, r.RecordCount)
		}
		totalUpdated += updated
	}

	log.Printf("Backfill complete: %d records re-classified", totalUpdated)
	return nil
}

// backfillRun re-runs classification for one run's stored records and
// rewrites the entries whose canonical path changed.
func backfillRun(
	ctx context.Context,
	runRepo port.RunRepository,
	recordRepo port.RecordRepository,
	run *domain.Run,
	master *hierarchy.Master,
) (int, error) {
	entries, err := recordRepo.ListByRun(ctx, run.ID)
	if err != nil {
		return 0, err
	}

	raws := make([]domain.RawRecord, 0, len(entries))
	for i := range entries {
		var rec domain.ClassifiedRecord
		if err := json.Unmarshal(entries[i].Payload, &rec); err != nil {
			return 0, fmt.Errorf("decoding record %s: %w", entries[i].FileName, err)
		}
		raws = append(raws, rec.RawRecord)
	}

	// Same narrowing the live pipeline applies before classification.
	scoped := master
	if detected := detect.Detect(raws); len(detected) > 0 {
		if filtered := master.FilterByWorkTypes(detected); filtered.LeafCount() > 0 {
			scoped = filtered
		}
	}
	classified, summary := classify.Batch(raws, scoped)

	updated := 0
	for i := range entries {
		entry := &entries[i]
		rec := &classified[i]

		var prev domain.ClassifiedRecord
		if err := json.Unmarshal(entry.Payload, &prev); err != nil {
			return updated, fmt.Errorf("decoding record %s: %w", entry.FileName, err)
		}
		if samePath(&prev, rec) {
			continue
		}

		payload, err := json.Marshal(rec)
		if err != nil {
			return updated, fmt.Errorf("encoding record %s: %w", entry.FileName, err)
		}
		entry.WorkType = rec.WorkType
		entry.Variety = rec.Variety
		entry.Subphase = rec.Subphase
		entry.Station = rec.Station
		entry.Provenance = rec.Provenance
		entry.Payload = payload

		if err := recordRepo.UpdateClassification(ctx, entry); err != nil {
			log.Printf("WARN: failed to update record %s in run %s: %v", entry.FileName, run.ID, err)
			continue
		}
		updated++
	}

	if updated > 0 {
		run.MatchedCount = summary.Matched
		run.UnmatchedCount = summary.Unmatched
		if err := runRepo.Update(ctx, run); err != nil {
			return updated, fmt.Errorf("updating run counts: %w", err)
		}
	}
	return updated, nil
}

// samePath reports whether two records agree on the canonical
// classification the backfill cares about.
func samePath(a, b *domain.ClassifiedRecord) bool {
	return a.Provenance == b.Provenance &&
		a.PhotoCategory == b.PhotoCategory &&
		a.WorkType == b.WorkType &&
		a.Variety == b.Variety &&
		a.Subphase == b.Subphase &&
		a.Remarks == b.Remarks
}
