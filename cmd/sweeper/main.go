package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"linkbin.local/internal/app/linkbin"
	"linkbin.local/internal/app/linkbin/repo"
	"linkbin.local/internal/app/linkbin/storage"
	"linkbin.local/internal/platform/config"
	"linkbin.local/internal/platform/db"
	"linkbin.local/internal/platform/metrics"
)

// The sweeper runs as its own process so blob listing never competes with
// request traffic. It shares config with the API.
func main() {
	cfg := config.Load()

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	slog.SetDefault(slog.New(h))

	dbCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	dbPool, err := db.New(dbCtx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()
	if err := dbPool.Ping(dbCtx); err != nil {
		log.Fatal(err)
	}

	blobCtx, blobCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer blobCancel()
	blobs, err := storage.NewMinioStore(blobCtx, storage.MinioConfig{
		Endpoint:      cfg.BlobEndpoint,
		AccessKey:     cfg.BlobAccessKey,
		SecretKey:     cfg.BlobSecretKey,
		Bucket:        cfg.BlobBucket,
		UseSSL:        cfg.BlobUseSSL,
		PublicBaseURL: cfg.BlobPublicBaseURL,
	})
	if err != nil {
		log.Fatal(err)
	}

	metrics.Init()

	sweeper := linkbin.NewSweeper(repo.NewLinksRepo(dbPool), blobs)
	sweeper.Grace = cfg.SweepGrace

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		res, err := sweeper.Sweep(ctx)
		if err != nil {
			slog.Error("sweep failed", "err", err)
			return
		}
		metrics.SweepDeletedTotal.Add(float64(res.Deleted))
		slog.Info("sweep done", "scanned", res.Scanned, "deleted", res.Deleted, "failed", res.Failed)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, run); err != nil {
		log.Fatal(err)
	}
	slog.Info("sweeper scheduled", "schedule", cfg.SweepSchedule, "grace", cfg.SweepGrace)

	// One pass at startup catches anything left over from a crash.
	run()
	c.Start()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	<-c.Stop().Done()
}
