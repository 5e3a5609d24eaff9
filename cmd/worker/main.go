package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"similarity-checker/internal/app"
	"similarity-checker/internal/httputil"
	"similarity-checker/internal/queue"
)

func main() {
	deps, err := app.BuildWorker()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()
	deps.Log.Info("similarity worker starting", "subject", queue.SubjectCompare)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// Run queue responder
	g.Go(func() error {
		return deps.Queue.Serve(ctx, func(ctx context.Context, req queue.CompareRequest) queue.CompareReply {
			return handleCompare(ctx, deps.Deps, req)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, deps.Config.Port, "worker")
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("worker stopped", "err", err)
	}
}

func handleCompare(ctx context.Context, deps app.Deps, req queue.CompareRequest) (reply queue.CompareReply) {
	log := deps.Log.With("request_id", req.RequestID)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic recovered", "panic", rec)
			reply = queue.CompareReply{RequestID: req.RequestID, Kind: queue.KindInternal, Error: "internal error"}
		}
	}()

	score, err := deps.Comparer.Compare(ctx, req.Text1, req.Text2)
	if err != nil {
		log.Warn("comparison failed", "err", err)
	}
	return queue.NewReply(req.RequestID, score, err)
}
