// Package analysis runs one client's documents through extraction, field
// parsing, the agreement gate and the lender matrix.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/fields"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/products"
)

// TextExtractor is satisfied by *ocr.Extractor.
type TextExtractor interface {
	Extract(ctx context.Context, doc ocr.Document) (ocr.ExtractionResult, error)
}

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	Products       *products.Table
	Annotation     AnnotationStrategy
	MaxUploadBytes int64 // 0 = unlimited
	MaxDocuments   int   // 0 = unlimited
	Logger         *slog.Logger
}

// OptionsFromConfig builds Options from the application config.
func OptionsFromConfig(cfg common.AnalysisConfig, table *products.Table, logger *slog.Logger) (Options, error) {
	strategy, err := ParseAnnotationStrategy(cfg.ContractAnnotation)
	if err != nil {
		return Options{}, common.NewAppError("CONFIG_ERROR", err.Error(), common.ErrInvalidInput)
	}
	return Options{
		Products:       table,
		Annotation:     strategy,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		MaxDocuments:   cfg.MaxDocuments,
		Logger:         logger,
	}, nil
}

// DocumentResult is what one ingested document contributed.
type DocumentResult struct {
	Name       string               `json:"name"`
	Extraction ocr.ExtractionResult `json:"extraction"`
	Reading    fields.Reading       `json:"reading"`
}

// Session accumulates documents for a single client. Documents are
// processed sequentially in ingest order; a Session is never shared
// between clients.
type Session struct {
	id        uuid.UUID
	logger    *slog.Logger
	extractor TextExtractor
	opts      Options

	// ingestMu serializes Ingest so the document limit and ingest order hold
	// under concurrent callers.
	ingestMu sync.Mutex

	mu     sync.Mutex
	docs   []DocumentResult
	acc    fields.Accumulator
	corpus strings.Builder
}

// NewSession creates an empty session.
func NewSession(extractor TextExtractor, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Products == nil {
		opts.Products = products.Default()
	}
	if opts.Annotation == "" {
		opts.Annotation = AnnotateFirst
	}
	id := uuid.New()
	return &Session{
		id:        id,
		logger:    opts.Logger.With("session_id", id.String()),
		extractor: extractor,
		opts:      opts,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Ingest extracts text from doc and folds its fields into the session.
// An extraction error leaves the session unchanged and should abort the analysis.
func (s *Session) Ingest(ctx context.Context, doc ocr.Document) (DocumentResult, error) {
	ctx = common.WithSessionID(ctx, s.id.String())
	logger := common.LoggerFromContext(ctx, s.opts.Logger).With("file", doc.Name)

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	if err := s.checkLimits(doc); err != nil {
		return DocumentResult{}, err
	}

	start := time.Now()
	res, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		logger.Error("extraction failed", "err", err)
		return DocumentResult{}, fmt.Errorf("extract %s: %w", doc.Name, err)
	}

	reading := fields.Parse(res.Text)
	out := DocumentResult{Name: doc.Name, Extraction: res, Reading: reading}

	s.mu.Lock()
	s.docs = append(s.docs, out)
	s.acc = s.acc.Add(reading)
	s.corpus.WriteString(res.Text)
	s.corpus.WriteString("\n")
	s.mu.Unlock()

	if res.Status != constants.ExtractionOK {
		logger.Warn("document produced no usable text", "status", res.Status, "warnings", res.Warnings)
	}
	logger.Info("document ingested",
		"status", res.Status,
		"pages", res.Pages,
		"margin", reading.Margin,
		"contracts", len(reading.Contracts),
		"skipped", reading.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (s *Session) checkLimits(doc ocr.Document) error {
	v := common.NewValidator().
		Field("name", doc.Name, common.Required).
		Field("content", doc.Content, common.Required, common.MaxBytes(s.opts.MaxUploadBytes))
	if err := v.Err(); err != nil {
		return err
	}
	if s.opts.MaxDocuments > 0 {
		s.mu.Lock()
		n := len(s.docs)
		s.mu.Unlock()
		if n >= s.opts.MaxDocuments {
			return common.NewAppError("TOO_MANY_DOCUMENTS",
				fmt.Sprintf("at most %d documents per analysis", s.opts.MaxDocuments), common.ErrInvalidInput)
		}
	}
	return nil
}

// Documents returns the ingested documents in order.
func (s *Session) Documents() []DocumentResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DocumentResult, len(s.docs))
	copy(out, s.docs)
	return out
}

// Totals returns the accumulated margin and contracts.
func (s *Session) Totals() fields.Accumulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc
}

// Corpus is every document's text, each followed by a newline.
func (s *Session) Corpus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.corpus.String()
}

// Analyze evaluates the client against everything ingested so far.
func (s *Session) Analyze(client ClientProfile) Report {
	s.mu.Lock()
	acc, corpus := s.acc, s.corpus.String()
	s.mu.Unlock()

	r := Evaluate(client, acc, corpus, s.opts.Products, s.opts.Annotation)
	r.SessionID = s.id.String()

	s.logger.Info("analysis complete",
		"passed", r.Verdict.Passed,
		"violations", r.Verdict.Violations,
		"documents", acc.Documents,
		"margin", acc.Margin,
	)
	return r
}
