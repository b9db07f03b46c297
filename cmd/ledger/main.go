// Command ledger runs the photo ledger pipeline from the command line,
// without the HTTP server or a database.
//
//	ledger analyze -folder ./photos [-master NAME] [-out results.json]
//	ledger export  -results results.json [-photos-per-page 3] [-out DIR]
//	ledger run     -folder ./photos [-master NAME] [-out DIR]
//	ledger masters
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"daicho/internal/config"
	"daicho/internal/csvexport"
	"daicho/internal/domain"
	"daicho/internal/layout"
	"daicho/internal/recognize"
	_ "daicho/internal/recognize/claude"
	_ "daicho/internal/recognize/gemini"
	_ "daicho/internal/recognize/openai"
	"daicho/internal/render/excel"
	"daicho/internal/render/pdf"
	"daicho/internal/service"
	"daicho/internal/validator"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var cmdErr error
	switch os.Args[1] {
	case "analyze":
		cmdErr = cmdAnalyze(cfg, os.Args[2:])
	case "export":
		cmdErr = cmdExport(cfg, os.Args[2:])
	case "run":
		cmdErr = cmdRun(cfg, os.Args[2:])
	case "masters":
		cmdErr = cmdMasters(cfg)
	default:
		usage()
		os.Exit(1)
	}
	if cmdErr != nil {
		log.Fatal(cmdErr)
	}
}

func usage() {
	fmt.Println("Usage: ledger [analyze|export|run|masters] [options]")
	fmt.Println("  analyze  recognize, classify and normalize a photo folder into a results JSON")
	fmt.Println("  export   render a results JSON into xlsx, pdf and csv")
	fmt.Println("  run      analyze and export in one pass")
	fmt.Println("  masters  list the available hierarchy masters")
}

// newPipeline wires the database-free pipeline: file masters only, no
// object storage.
func newPipeline(cfg *config.Config) (service.PipelineService, error) {
	recognizer, err := recognize.FromConfig(&cfg.Recognizer)
	if err != nil {
		return nil, fmt.Errorf("initializing recognizer: %w", err)
	}
	masters := service.NewMasterService(nil, cfg.Master, validator.NewDefaultEngine())
	return service.NewPipelineService(cfg, masters, recognizer, nil), nil
}

func cmdAnalyze(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	folder := fs.String("folder", "", "photo folder to process")
	master := fs.String("master", "", "master name; empty uses the configured default")
	aliasPreset := fs.String("alias-preset", "", "alias preset name (pavement, marking, general)")
	aliasFile := fs.String("alias-file", "", "alias JSON config file")
	threshold := fs.Float64("threshold", 0, "unification majority share override")
	out := fs.String("out", "results.json", "output JSON file")
	_ = fs.Parse(args)

	if *folder == "" {
		return fmt.Errorf("analyze: -folder is required")
	}

	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	result, err := pipeline.Analyze(context.Background(), &service.RunPipelineInput{
		Source:      *folder,
		MasterName:  *master,
		AliasPreset: *aliasPreset,
		AliasFile:   *aliasFile,
		Threshold:   *threshold,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}

	log.Printf("%d records analyzed (%d matched, %d unmatched, %d corrections) -> %s",
		result.Summary.Total, result.Summary.Matched, result.Summary.Unmatched,
		len(result.Corrections), *out)
	return nil
}

func cmdExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	results := fs.String("results", "results.json", "results JSON produced by analyze")
	perPage := fs.Int("photos-per-page", 0, "photos per page (2 or 3); 0 uses the configured default")
	title := fs.String("title", "", "ledger title; empty uses the configured default")
	out := fs.String("out", "", "output directory; empty uses the configured default")
	_ = fs.Parse(args)

	data, err := os.ReadFile(*results)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *results, err)
	}
	var result service.PipelineResult
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("decoding %s: %w", *results, err)
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("%s contains no records: %w", *results, domain.ErrEmptyBatch)
	}

	return renderAll(cfg, &result, *title, *perPage, *out)
}

func cmdRun(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	folder := fs.String("folder", "", "photo folder to process")
	master := fs.String("master", "", "master name; empty uses the configured default")
	aliasPreset := fs.String("alias-preset", "", "alias preset name (pavement, marking, general)")
	aliasFile := fs.String("alias-file", "", "alias JSON config file")
	threshold := fs.Float64("threshold", 0, "unification majority share override")
	perPage := fs.Int("photos-per-page", 0, "photos per page (2 or 3); 0 uses the configured default")
	title := fs.String("title", "", "ledger title; empty uses the configured default")
	out := fs.String("out", "", "output directory; empty uses the configured default")
	_ = fs.Parse(args)

	if *folder == "" {
		return fmt.Errorf("run: -folder is required")
	}

	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	result, err := pipeline.Analyze(context.Background(), &service.RunPipelineInput{
		Source:      *folder,
		MasterName:  *master,
		AliasPreset: *aliasPreset,
		AliasFile:   *aliasFile,
		Threshold:   *threshold,
	})
	if err != nil {
		return err
	}

	log.Printf("%d records analyzed (%d matched, %d unmatched, %d corrections)",
		result.Summary.Total, result.Summary.Matched, result.Summary.Unmatched,
		len(result.Corrections))
	return renderAll(cfg, result, *title, *perPage, *out)
}

// renderAll writes the workbook, PDF, records CSV, corrections CSV and
// results JSON for one analyzed batch into the output directory.
func renderAll(cfg *config.Config, result *service.PipelineResult, title string, perPage int, outDir string) error {
	if title == "" {
		title = cfg.Pipeline.Title
	}
	if perPage == 0 {
		perPage = cfg.Pipeline.PhotosPerPage
	}
	if outDir == "" {
		outDir = cfg.Pipeline.OutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", outDir, err)
	}

	plan := layout.Plan(result.Records, layout.ForPhotosPerPage(perPage))

	renderer := &excel.Renderer{Images: localImage}
	xlsxData, err := renderer.Render(plan)
	if err != nil {
		return fmt.Errorf("rendering workbook: %w", err)
	}

	pdfData, err := pdf.Render(plan, pdf.Options{
		Title:    title,
		FontName: cfg.Pipeline.FontName,
		FontPath: cfg.Pipeline.FontPath,
	})
	if err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}

	base := csvexport.BuildFilename(title)
	outputs := []struct {
		name string
		data func(*os.File) error
	}{
		{base + ".xlsx", writeBytes(xlsxData)},
		{base + ".pdf", writeBytes(pdfData)},
		{base + ".csv", func(f *os.File) error { return csvexport.ExportRecords(f, result.Records) }},
		{base + "_corrections.csv", func(f *os.File) error { return csvexport.ExportCorrections(f, result.Corrections) }},
	}
	for _, o := range outputs {
		path := filepath.Join(outDir, o.name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := o.data(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func writeBytes(data []byte) func(*os.File) error {
	return func(f *os.File) error {
		_, err := f.Write(data)
		return err
	}
}

// localImage loads a photo from disk for the workbook renderer.
func localImage(filePath string) (*excel.Image, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return &excel.Image{Data: data, Extension: ext}, nil
}

func cmdMasters(cfg *config.Config) error {
	masters := service.NewMasterService(nil, cfg.Master, validator.NewDefaultEngine())
	infos, err := masters.List(context.Background())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		log.Printf("no masters found under %q", cfg.Master.Dir)
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%-24s %-5s %4d leaves (%s)\n", info.Name, info.Format, info.LeafCount, info.Source)
	}
	return nil
}
