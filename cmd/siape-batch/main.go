package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/analysis"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/products"
	"github.com/joseph-ayodele/siape-analyzer/internal/export"
	"github.com/joseph-ayodele/siape-analyzer/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		name   = flag.String("name", "", "client name (required)")
		age    = flag.Int("age", -1, "client age in years (required)")
		dir    = flag.String("dir", "", "directory with the client's documents")
		out    = flag.String("out", "", "optional XLSX report path")
		hidden = flag.Bool("hidden", false, "include hidden files when scanning --dir")
	)
	flag.Usage = func() {
		printError("usage: siape-batch --name NAME --age AGE [--dir DIR | FILE...] [--out report.xlsx]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *name == "" || *age < 0 {
		printError("Error: --name and --age are required\n")
		flag.Usage()
		os.Exit(2)
	}
	if (*dir == "") == (flag.NArg() == 0) {
		printError("Error: pass either --dir or a list of files\n")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	// logs go to stderr so the report on stdout stays clean
	logger := common.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := products.LoadFile(cfg.Analysis.ProductRulesFile)
	if err != nil {
		logger.Error("failed to load product rules", "error", err)
		os.Exit(1)
	}
	opts, err := analysis.OptionsFromConfig(cfg.Analysis, table, logger)
	if err != nil {
		logger.Error("invalid analysis options", "error", err)
		os.Exit(2)
	}

	loader := ingest.NewLoader(logger, opts.MaxUploadBytes, !*hidden)
	var files []ingest.FileResult
	if *dir != "" {
		var stats ingest.DirStats
		files, stats, err = loader.LoadDirectory(ctx, *dir)
		if err == nil && stats.Failed > 0 {
			err = fmt.Errorf("%d file(s) could not be loaded", stats.Failed)
		}
	} else {
		files, err = loader.LoadPaths(ctx, flag.Args())
	}
	if err != nil {
		logger.Error("failed to load documents", "error", err)
		os.Exit(1)
	}
	docs := ingest.Documents(files)
	if len(docs) == 0 {
		logger.Warn("no documents found; evaluating on the client profile only")
	}

	extractor := ocr.NewExtractor(ocr.ConfigFromCommon(cfg.OCR), logger)
	session := analysis.NewSession(extractor, opts)
	for _, doc := range docs {
		if _, err := session.Ingest(ctx, doc); err != nil {
			// an unreadable document invalidates the whole analysis
			logger.Error("analysis aborted", "file", doc.Name, "error", err)
			os.Exit(1)
		}
	}

	report := session.Analyze(analysis.ClientProfile{Name: *name, Age: *age})
	fmt.Print(report.Render())

	if *out != "" {
		xlsx, err := export.NewService(logger).ReportXLSX(ctx, report, session.Documents())
		if err != nil {
			logger.Error("failed to export report", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
		logger.Info("report written", "output", *out)
	}
}
