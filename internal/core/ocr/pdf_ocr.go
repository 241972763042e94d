package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/common"
)

func (e *Extractor) extractPDF(ctx context.Context, logger *slog.Logger, doc Document) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: "pdf-ocr"}

	// page count is advisory: pdftoppm decides what is renderable
	declared, err := countPDFPages(doc.Content)
	if err != nil {
		logger.Debug("pdf page count unavailable", "document", doc.Name, "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("pdf page count unavailable: %v", err))
	}

	tmpDir, err := os.MkdirTemp("", "siape-pdf-*")
	if err != nil {
		return res, fmt.Errorf("%w: temp dir: %w", common.ErrInternal, err)
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to remove temp dir", "dir", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(in, doc.Content, 0o600); err != nil {
		return res, fmt.Errorf("%w: write pdf: %w", common.ErrInternal, err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	args = append(args, in, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, logger, args...); err != nil {
		return res, processingError("pdftoppm", err, errb)
	}

	// collect generated pngs (page-1.png, page-2.png, ... zero padded by pdftoppm)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return res, processingError("pdftoppm", errors.New("no pages rendered"), nil)
	}
	expected := declared
	if e.cfg.MaxPages > 0 && expected > e.cfg.MaxPages {
		expected = e.cfg.MaxPages
	}
	if expected > 0 && expected != len(matches) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("pdf declares %d pages, rendered %d", expected, len(matches)))
	}

	var b strings.Builder
	for i, img := range matches {
		txt, err := e.tesseractOCR(ctx, logger, img)
		if err != nil {
			return res, fmt.Errorf("page %d: %w", i+1, err)
		}
		b.WriteString(txt)
		b.WriteString("\n")
	}
	res.Text = b.String()
	res.Pages = len(matches)
	return res, nil
}

func countPDFPages(content []byte) (n int, err error) {
	// the reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
