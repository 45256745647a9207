package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/doctext/internal/async"
	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/export"
	"github.com/joseph-ayodele/doctext/internal/extract"
	"github.com/joseph-ayodele/doctext/internal/jobs"
	"github.com/joseph-ayodele/doctext/internal/ocr"
	"github.com/joseph-ayodele/doctext/internal/ocr/tesseract"
	"github.com/joseph-ayodele/doctext/internal/pdf"
	"github.com/joseph-ayodele/doctext/internal/server"
	"github.com/joseph-ayodele/doctext/internal/storage"
	"github.com/joseph-ayodele/doctext/internal/textract"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := common.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("textractd stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("textractd stopped")
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return common.WrapError(err, "open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	engine, err := tesseract.Select(cfg.OCR, logger)
	if err != nil {
		return err
	}
	dispatcher := extract.NewDispatcher(
		pdf.NewExtractor(logger),
		ocr.NewAdapter(engine, ocr.Config{Languages: cfg.OCR.Languages}, logger),
		logger,
	)

	registry := jobs.NewRegistry(logger)
	runner := async.NewRunner(logger, async.WithMaxConcurrency(cfg.Jobs.MaxConcurrency))

	var (
		svcOpts []textract.Option
		srvOpts []server.Option
	)
	if cfg.Archive.Driver != "none" {
		archive, db, err := server.ConnectArchive(ctx, cfg.Archive, logger)
		if err != nil {
			return common.WrapError(err, "open job archive")
		}
		defer server.CloseDB(db, logger)
		svcOpts = append(svcOpts, textract.WithArchive(archive))
		srvOpts = append(srvOpts,
			server.WithJobArchive(archive),
			server.WithHealthProbe("archive", func(ctx context.Context) error {
				return server.PingDB(ctx, db, logger, 2*time.Second)
			}),
		)
	}

	svc := textract.NewService(registry, store, dispatcher, runner, logger, svcOpts...)

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.NewServer(svc, store, export.NewService(logger), logger, srvOpts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var (
		grpcServer *grpc.Server
		grpcHealth *health.Server
		grpcLis    net.Listener
	)
	if cfg.Server.GRPCHealthAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.Server.GRPCHealthAddr)
		if err != nil {
			return common.WrapError(err, "listen grpc health")
		}
		grpcServer = grpc.NewServer()
		grpcHealth = health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, grpcHealth)
		grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr, "base_url", cfg.Server.BaseURL, "ocr_engine", engine.Name(), "storage", cfg.Storage.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return common.WrapError(err, "http serve")
		}
		return nil
	})

	g.Go(func() error {
		svc.RunSweeper(gctx, cfg.Jobs.SweepInterval, cfg.Jobs.Retention)
		return nil
	})

	if grpcServer != nil {
		g.Go(func() error {
			logger.Info("grpc health serving", "addr", cfg.Server.GRPCHealthAddr)
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return common.WrapError(err, "grpc serve")
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
		if grpcServer != nil {
			grpcHealth.Shutdown()
			grpcServer.GracefulStop()
		}
		if err := runner.Shutdown(shutdownCtx); err != nil {
			logger.Warn("in-flight extractions abandoned", "error", err)
		}
		return nil
	})

	return g.Wait()
}
