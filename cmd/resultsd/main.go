package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/results-tracker/internal/app"
	asyncq "github.com/joseph-ayodele/results-tracker/internal/async"
	"github.com/joseph-ayodele/results-tracker/internal/common"
	"github.com/joseph-ayodele/results-tracker/internal/core"
	"github.com/joseph-ayodele/results-tracker/internal/core/async"
	"github.com/joseph-ayodele/results-tracker/internal/ingest"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $"+common.ConfigPathEnv+")")
	initialScan := flag.Bool("scan", true, "process files already in the inbox on startup")
	flag.Parse()

	cfg, err := common.LoadConfigFile(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)

	if len(cfg.Batch.InboxRoots) == 0 {
		logger.Error("no inbox roots configured (INBOX_ROOTS or batch.inbox_roots)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	proc, err := app.NewProcessor(cfg, db, logger)
	if err != nil {
		logger.Error("failed to build processor", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithProcessTimeout(cfg.Batch.StreamTimeout),
		async.WithResultHandler(func(job asyncq.Job, res core.StreamResult, err error) {
			if err != nil {
				return
			}
			logger.Info("resultsd.stream.done",
				"trace_id", job.TraceID,
				"stream_id", job.Stream.ID,
				"run_id", res.RunID,
				"status", res.Status,
				"warnings", len(res.Warnings),
			)
		}),
	)

	batches, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       cfg.Batch.InboxRoots,
		InitialScan: *initialScan,
		Debounce:    cfg.Batch.Debounce,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("resultsd listening", "addr", cfg.Server.GRPCAddr, "inbox", cfg.Batch.InboxRoots)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warn("resultsd.watch.error", "error", err)
		case paths, ok := <-batches:
			if !ok {
				done = true
				continue
			}
			enqueue(ctx, queue, cfg.Batch.InboxRoots, paths, logger)
		}
	}

	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Batch.StreamTimeout)
	defer cancel()
	queue.Shutdown(drainCtx)
	grpcServer.GracefulStop()
}

// enqueue resolves a batch of changed paths to whole streams and queues them.
func enqueue(ctx context.Context, q asyncq.Queue, roots, paths []string, logger *slog.Logger) {
	for root, changed := range byRoot(roots, paths) {
		streams, err := ingest.StreamsFor(ctx, root, changed, logger)
		if err != nil {
			logger.Error("resultsd.streams.failed", "root", root, "error", err)
			continue
		}
		for _, s := range streams {
			job := asyncq.Job{Stream: s, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Warn("resultsd.enqueue.failed", "stream_id", s.ID, "error", err)
				return
			}
		}
	}
}

// byRoot groups paths under the inbox root that contains them. Paths under
// no root are dropped.
func byRoot(roots, paths []string) map[string][]string {
	out := map[string][]string{}
	for _, p := range paths {
		for _, root := range roots {
			rel, err := filepath.Rel(root, p)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				continue
			}
			out[root] = append(out[root], p)
			break
		}
	}
	return out
}
