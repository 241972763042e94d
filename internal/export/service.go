// Package export renders analysis reports as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/analysis"
)

// Sheet names, in workbook order.
const (
	SheetSummary   = "Summary"
	SheetLenders   = "Lenders"
	SheetContracts = "Contracts"
	SheetDocuments = "Documents"
)

// Service produces XLSX bytes for an analysis report.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReportXLSX returns a workbook with a verdict summary, the lender matrix
// (only filled when the verdict passed), the extracted contracts, and one
// row per ingested document when docs is non-empty.
func (s *Service) ReportXLSX(ctx context.Context, report analysis.Report, docs []analysis.DocumentResult) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetLenders, SheetContracts, SheetDocuments} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, bold: bold, money: money}
	w.summary(report)
	w.lenders(report)
	w.contracts(report)
	w.documents(docs)
	if w.err != nil {
		return nil, fmt.Errorf("xlsx fill: %w", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("report exported",
		"session_id", report.SessionID,
		"passed", report.Verdict.Passed,
		"lenders", len(report.Lenders),
		"contracts", len(report.Contracts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// sheetWriter keeps the first cell error so the fill code stays linear.
type sheetWriter struct {
	f     *excelize.File
	bold  int
	money int
	err   error
}

func (w *sheetWriter) set(sheet string, col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(sheet, cell, v)
}

func (w *sheetWriter) style(sheet string, fromCol, fromRow, toCol, toRow, style int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(fromCol, fromRow)
	to, _ := excelize.CoordinatesToCellName(toCol, toRow)
	w.err = w.f.SetCellStyle(sheet, from, to, style)
}

func (w *sheetWriter) header(sheet string, cols ...string) {
	for i, h := range cols {
		w.set(sheet, i+1, 1, h)
	}
	w.style(sheet, 1, 1, len(cols), 1, w.bold)
}

func (w *sheetWriter) width(sheet, from, to string, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(sheet, from, to, width)
}

func (w *sheetWriter) summary(r analysis.Report) {
	verdict := "Rejected"
	if r.Verdict.Passed {
		verdict = "Approved"
	}
	rows := [][2]any{
		{"Client", r.Client.Name},
		{"Age", r.Client.Age},
		{"Documents", r.Documents},
		{"Available margin", r.Margin},
		{"Verdict", verdict},
		{"Reason", r.Verdict.Reason},
		{"Violations", strings.Join(r.Verdict.Violations, ", ")},
		{"Session", r.SessionID},
		{"Generated at", r.GeneratedAt.Format(time.RFC3339)},
	}
	for i, kv := range rows {
		w.set(SheetSummary, 1, i+1, kv[0])
		w.set(SheetSummary, 2, i+1, kv[1])
	}
	w.style(SheetSummary, 1, 1, 1, len(rows), w.bold)
	w.style(SheetSummary, 2, 4, 2, 4, w.money)
	w.width(SheetSummary, "A", "A", 18)
	w.width(SheetSummary, "B", "B", 60)
}

func (w *sheetWriter) lenders(r analysis.Report) {
	cols := []string{"Lender"}
	for _, p := range constants.AllProducts() {
		cols = append(cols, p.Label())
	}
	w.header(SheetLenders, cols...)

	for i, l := range r.Lenders {
		row := i + 2
		w.set(SheetLenders, 1, row, l.Name)
		for j, p := range constants.AllProducts() {
			if pr, ok := l.Row(p); ok {
				w.set(SheetLenders, j+2, row, pr.Display())
			}
		}
	}
	w.width(SheetLenders, "A", "A", 24)
	w.width(SheetLenders, "B", "E", 44)
}

func (w *sheetWriter) contracts(r analysis.Report) {
	w.header(SheetContracts, "#", "Contract", "Installment")
	for i, c := range r.Contracts {
		row := i + 2
		w.set(SheetContracts, 1, row, i+1)
		w.set(SheetContracts, 2, row, c.Number)
		w.set(SheetContracts, 3, row, c.Installment)
	}
	if n := len(r.Contracts); n > 0 {
		w.style(SheetContracts, 3, 2, 3, n+1, w.money)
	}
	w.width(SheetContracts, "B", "C", 16)
}

func (w *sheetWriter) documents(docs []analysis.DocumentResult) {
	w.header(SheetDocuments, "File", "Status", "Pages", "Margin", "Contracts", "Confidence", "Warnings")
	for i, d := range docs {
		row := i + 2
		w.set(SheetDocuments, 1, row, d.Name)
		w.set(SheetDocuments, 2, row, string(d.Extraction.Status))
		w.set(SheetDocuments, 3, row, d.Extraction.Pages)
		w.set(SheetDocuments, 4, row, d.Reading.Margin)
		w.set(SheetDocuments, 5, row, len(d.Reading.Contracts))
		w.set(SheetDocuments, 6, row, d.Extraction.Confidence)
		w.set(SheetDocuments, 7, row, truncate(strings.Join(d.Extraction.Warnings, "; "), 140))
	}
	w.width(SheetDocuments, "A", "A", 32)
	w.width(SheetDocuments, "G", "G", 60)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
