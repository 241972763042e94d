package main

import (
	"context"
	"log/slog"
	"math"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joseph-ayodele/siape-analyzer/internal/async"
	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/analysis"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/products"
	"github.com/joseph-ayodele/siape-analyzer/internal/export"
	"github.com/joseph-ayodele/siape-analyzer/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	table, err := products.LoadFile(cfg.Analysis.ProductRulesFile)
	if err != nil {
		logger.Error("failed to load product rules", "file", cfg.Analysis.ProductRulesFile, "error", err)
		os.Exit(1)
	}
	opts, err := analysis.OptionsFromConfig(cfg.Analysis, table, logger)
	if err != nil {
		logger.Error("invalid analysis options", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := async.NewExtractionQueue(ocr.NewExtractor(ocr.ConfigFromCommon(cfg.OCR), logger), logger,
		async.WithWorkers(cfg.OCR.Workers),
		async.WithQueueSize(cfg.OCR.QueueSize),
	)
	svc := server.NewAnalysisService(queue, opts, export.NewService(logger), logger)

	// base64 inflates uploads by 4/3; leave headroom for the other fields
	maxRecv := math.MaxInt32
	if opts.MaxDocuments > 0 && opts.MaxUploadBytes > 0 {
		maxRecv = int(min(opts.MaxUploadBytes*int64(opts.MaxDocuments)*4/3+1<<20, math.MaxInt32))
	}
	grpcServer, healthServer := server.NewGRPCServer(svc, maxRecv, logger)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}

	logger.Info("siape-analyzer listening",
		"addr", addr,
		"lenders", len(table.Lenders()),
		"ocr_lang", cfg.OCR.Lang,
		"annotation", opts.Annotation,
	)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	drainCtx := context.Background()
	if cfg.Server.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(drainCtx, cfg.Server.ShutdownTimeout)
		defer cancel()
	}
	queue.Shutdown(drainCtx)
}
