package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"linkbin.local/internal/app/linkbin"
	"linkbin.local/internal/app/linkbin/httpapi"
	"linkbin.local/internal/app/linkbin/repo"
	"linkbin.local/internal/app/linkbin/stats"
	"linkbin.local/internal/app/linkbin/storage"
	"linkbin.local/internal/platform/auth"
	"linkbin.local/internal/platform/config"
	"linkbin.local/internal/platform/db"
	"linkbin.local/internal/platform/httpmiddleware"
	"linkbin.local/internal/platform/httpserver"
	"linkbin.local/internal/platform/metrics"
	"linkbin.local/internal/platform/migrate"
	"linkbin.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

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
	slog.Info("database connected")

	migRes, err := migrate.Up(context.Background(), dbPool, migrate.Options{})
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("migrations up to date", "applied", len(migRes.AppliedFiles), "skipped", len(migRes.SkippedFiles))

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
	slog.Info("blob store ready", "bucket", cfg.BlobBucket)

	// Expect a million codes at 1% false positives. The filter only skips
	// EXISTS pre-checks; the unique constraint stays authoritative.
	taken := linkbin.NewTakenFilter(1_000_000, 0.01)

	linksRepo := repo.NewLinksRepo(dbPool)
	foldersRepo := repo.NewFoldersRepo(dbPool)
	usersRepo := repo.NewUsersRepo(dbPool)

	linkSvc := linkbin.NewService(linksRepo, foldersRepo, blobs, taken)
	folderSvc := linkbin.NewFolderService(foldersRepo)
	directory := linkbin.NewDirectory(usersRepo)

	var collector stats.Collector
	var kafkaConsumer *stats.KafkaConsumer
	var channelConsumer *stats.Consumer
	if cfg.KafkaEnabled {
		slog.Info("visit stats via kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = stats.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
		kafkaConsumer = stats.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, dbPool)
	} else {
		slog.Info("visit stats via channel")
		channelCollector := stats.NewChannelCollector(10000)
		collector = channelCollector
		channelConsumer = stats.NewConsumer(dbPool, channelCollector)
	}

	ts, err := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}

	metrics.Init()

	if cfg.TracingEnabled {
		shutdown := trace.Init(cfg.OtlpGrpcEndpoint, cfg.ServiceName)
		if shutdown == nil {
			slog.Error("trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	} else {
		slog.Warn("tracing disabled by config", "TRACING_ENABLED", false)
	}

	deps := httpapi.Deps{
		Links:   linkSvc,
		Folders: folderSvc,
		Users:   directory,
		Tokens:  ts,
		Visits:  collector,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(httpmiddleware.RequestID)
	r.Use(httpmiddleware.AccessLog)
	r.Use(httpmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(api chi.Router) {
		httpapi.RegisterAPIRoutes(api, deps)
	})
	httpapi.RegisterPublicRoutes(r, deps)

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, cfg.Addr, publicHandler)

	// Loopback only; never expose alongside the public listener.
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("db ping failed"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})
	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	adminSrv := httpserver.New(cfg, cfg.AdminAddr, adminMux)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errch := make(chan error, 2)
	go func() {
		errch <- httpserver.Run(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.Run(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()

	if kafkaConsumer != nil {
		go kafkaConsumer.Run(stopCtx)
		defer kafkaConsumer.Close()
	}
	if channelConsumer != nil {
		go channelConsumer.Run(stopCtx)
	}
	defer collector.Close()

	err = <-errch
	if err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}
