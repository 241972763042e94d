package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/fields"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
	"github.com/joseph-ayodele/siape-analyzer/internal/ingest"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file>")
		os.Exit(2)
	}

	// the extractor applies OCR_TIMEOUT itself
	ctx := context.Background()

	file, err := ingest.NewLoader(logger, cfg.Analysis.MaxUploadBytes(), false).LoadPath(ctx, os.Args[1])
	if err != nil {
		logger.Error("cannot load file", "path", os.Args[1], "error", err)
		os.Exit(2)
	}

	extractor := ocr.NewExtractor(ocr.ConfigFromCommon(cfg.OCR), logger)

	start := time.Now()
	res, err := extractor.Extract(ctx, file.Document)
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "file", file.SourcePath, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	fmt.Print(res.Text)

	reading := fields.Parse(res.Text)
	logger.Info("text extraction done",
		"file", file.SourcePath,
		"status", res.Status,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"confidence", res.Confidence,
		"margin", reading.Margin,
		"contracts", len(reading.Contracts),
		"duration_ms", dur.Milliseconds(),
	)
}
