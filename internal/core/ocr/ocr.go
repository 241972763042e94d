// Package ocr turns uploaded documents into plain text by rasterizing PDFs
// with pdftoppm and running tesseract over every page or image.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/common"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "por"
	TessdataDir   string
	DPI           int // rasterization DPI for PDFs, default 300
	MaxPages      int // 0 = no limit

	PSM int // page segmentation mode; 0 leaves tesseract's default
	OEM int // 1 = LSTM; 0 leaves tesseract's default

	Timeout time.Duration // per document; 0 = no limit
}

// Document is an uploaded file as received from the caller. Content is read once.
type Document struct {
	Name      string
	MediaType string
	Content   []byte
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE | ""
	Method     string // "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
	Status     constants.ExtractionStatus
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// ConfigFromCommon maps the environment-driven OCR settings onto Config.
func ConfigFromCommon(c common.OCRConfig) Config {
	return Config{
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.Lang,
		TessdataDir:   c.TessdataDir,
		DPI:           c.DPI,
		MaxPages:      c.MaxPages,
		PSM:           c.PSM,
		OEM:           c.OEM,
		Timeout:       c.Timeout,
	}
}

// Extract picks a strategy based on the declared media type.
// Unsupported media types yield empty text with constants.ExtractionUnsupported and no error;
// rasterization or OCR failures are returned as errors wrapping common.ErrProcessing.
func (e *Extractor) Extract(ctx context.Context, doc Document) (ExtractionResult, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, e.logger)
	format := constants.MapMediaType(doc.MediaType)
	logger.Debug("starting ocr extraction", "document", doc.Name, "media_type", doc.MediaType, "format", format, "bytes", len(doc.Content))

	if e.cfg.Timeout > 0 && format != "" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	var (
		res ExtractionResult
		err error
	)
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, logger, doc)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, logger, doc)
	default:
		logger.Warn("unsupported media type, no text extracted", "document", doc.Name, "media_type", doc.MediaType)
		return ExtractionResult{
			Status:   constants.ExtractionUnsupported,
			Warnings: []string{fmt.Sprintf("unsupported media type %q", doc.MediaType)},
			Duration: time.Since(start),
		}, nil
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	res.Language = e.cfg.TesseractLang
	res.Confidence = heuristicConfidence(res.Text)
	if strings.TrimSpace(res.Text) == "" {
		res.Status = constants.ExtractionNoText
	} else {
		res.Status = constants.ExtractionOK
	}
	logger.Info("ocr extraction done",
		"document", doc.Name,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"status", res.Status,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, logger *slog.Logger, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, logger, args...)
	if err != nil {
		return "", processingError("tesseract", err, errb)
	}
	return string(out), nil
}

func processingError(step string, err error, stderr []byte) error {
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return fmt.Errorf("%w: %s: %w (%s)", common.ErrProcessing, step, err, truncate(msg, 512))
	}
	return fmt.Errorf("%w: %s: %w", common.ErrProcessing, step, err)
}
