// Package server exposes the analysis pipeline over gRPC.
package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/analysis"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/fields"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/products"
	"github.com/joseph-ayodele/siape-analyzer/internal/export"
)

// AnalysisService implements AnalysisServer. Each Analyze call runs its own
// session; nothing is kept between calls.
type AnalysisService struct {
	extractor analysis.TextExtractor
	opts      analysis.Options
	exporter  *export.Service
	logger    *slog.Logger
}

var _ AnalysisServer = (*AnalysisService)(nil)

func NewAnalysisService(extractor analysis.TextExtractor, opts analysis.Options, exporter *export.Service, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	if opts.Products == nil {
		opts.Products = products.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	return &AnalysisService{extractor: extractor, opts: opts, exporter: exporter, logger: logger}
}

// ExtractText OCRs a single document and returns its text with the parsed fields.
func (s *AnalysisService) ExtractText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	logger := common.LoggerFromContext(ctx, s.logger)

	doc, err := toDocument(req)
	if err != nil {
		logger.Warn("invalid extract request", "err", err)
		return nil, common.ToStatus(err)
	}
	if err := common.NewValidator().Field("content", doc.Content, common.MaxBytes(s.opts.MaxUploadBytes)).Err(); err != nil {
		return nil, common.ToStatus(err)
	}

	res, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		logger.Error("extract text failed", "file", doc.Name, "err", err)
		return nil, common.ToStatus(err)
	}

	out, err := structpb.NewStruct(extractionMap(res, fields.Parse(res.Text)))
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

// Analyze runs a full session: every document in order, then the verdict and lender matrix.
func (s *AnalysisService) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	report, docs, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := structpb.NewStruct(reportMap(report, docs))
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

// ExportReport is Analyze plus the XLSX workbook, base64 encoded.
func (s *AnalysisService) ExportReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	report, docs, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}
	xlsx, err := s.exporter.ReportXLSX(ctx, report, docs)
	if err != nil {
		common.LoggerFromContext(ctx, s.logger).Error("report export failed", "session_id", report.SessionID, "err", err)
		return nil, common.ToStatus(err)
	}

	m := reportMap(report, docs)
	m["xlsx_base64"] = base64.StdEncoding.EncodeToString(xlsx)
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

// ListLenders returns the active lender table with each product rule rendered.
func (s *AnalysisService) ListLenders(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(lendersMap(s.opts.Products))
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

func (s *AnalysisService) run(ctx context.Context, req *structpb.Struct) (analysis.Report, []analysis.DocumentResult, error) {
	logger := common.LoggerFromContext(ctx, s.logger)

	client, err := toClient(req)
	if err != nil {
		logger.Warn("invalid analyze request", "err", err)
		return analysis.Report{}, nil, common.ToStatus(err)
	}

	items := listField(req, "documents")
	docs := make([]*structpb.Struct, 0, len(items))
	for i, item := range items {
		st := item.GetStructValue()
		if st == nil {
			return analysis.Report{}, nil, common.InvalidArgumentErrorf("documents[%d] must be an object", i)
		}
		docs = append(docs, st)
	}

	session := analysis.NewSession(s.extractor, s.opts)
	ctx = common.WithSessionID(ctx, session.ID().String())
	logger.Info("analysis started", "session_id", session.ID().String(), "documents", len(docs))

	for i, st := range docs {
		doc, err := toDocument(st)
		if err != nil {
			return analysis.Report{}, nil, common.ToStatus(fmt.Errorf("documents[%d]: %w", i, err))
		}
		if _, err := session.Ingest(ctx, doc); err != nil {
			return analysis.Report{}, nil, common.ToStatus(err)
		}
	}

	return session.Analyze(client), session.Documents(), nil
}
