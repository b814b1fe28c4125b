package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrportal/internal/application/handler"
	"hrportal/internal/application/intake"
	"hrportal/internal/application/lock"
	appmetrics "hrportal/internal/application/metrics"
	"hrportal/internal/application/service"
	appmemory "hrportal/internal/application/store/memory"
	apppostgres "hrportal/internal/application/store/postgres"
	"hrportal/internal/blob"
	blobfs "hrportal/internal/blob/filesystem"
	blobmemory "hrportal/internal/blob/memory"
	blobs3 "hrportal/internal/blob/s3"
	jwttoken "hrportal/internal/jwt_token"
	"hrportal/internal/notify"
	"hrportal/internal/platform/config"
	"hrportal/internal/platform/metrics"
	"hrportal/internal/platform/postgres"
	redisclient "hrportal/internal/platform/redis"
	"hrportal/migrations"
	"hrportal/pkg/platform/audit"
	"hrportal/pkg/platform/audit/publishers/compliance"
	auditmemory "hrportal/pkg/platform/audit/store/memory"
	auditpostgres "hrportal/pkg/platform/audit/store/postgres"
	adminmw "hrportal/pkg/platform/middleware/admin"
	authmw "hrportal/pkg/platform/middleware/auth"
	"hrportal/pkg/platform/middleware/metadata"
	request "hrportal/pkg/platform/middleware/request"
	"hrportal/pkg/platform/middleware/requesttime"
)

type auditStore interface {
	audit.Store
	audit.OutboxStore
}

// app holds everything main needs to serve and shut down.
type app struct {
	router http.Handler
	relay  *notify.Relay
	sink   notify.Sink
	db     *sql.DB
	redis  *redisclient.Client
}

func (a *app) close(log *slog.Logger) {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			log.Warn("closing notify sink", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn("closing redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn("closing postgres", "error", err)
		}
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close(log)
		}
	}()

	if a.db, err = postgres.Open(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}
	if a.db != nil {
		if err = migrations.Apply(ctx, a.db); err != nil {
			return nil, err
		}
	}
	if a.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(ctx, cfg.Blob, log)
	if err != nil {
		return nil, err
	}

	var (
		store  service.Store
		tx     service.TxRunner
		events auditStore
	)
	if a.db != nil {
		store = apppostgres.NewPostgres(a.db)
		tx = service.NewPostgresTx(a.db)
		events = auditpostgres.New(a.db)
	} else {
		log.Warn("DATABASE_URL not set, records are kept in memory")
		store = appmemory.NewInMemoryStore()
		tx = service.NewMemoryTx()
		events = auditmemory.NewInMemoryStore()
	}

	var locker service.Locker = lock.NewSharded(cfg.Lock.Timeout)
	if cfg.Lock.Backend == "redis" {
		locker = lock.NewRedis(a.redis.Client, cfg.Lock.TTL, cfg.Lock.Timeout, lock.WithLogger(log))
	}

	publisher := compliance.New(events,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics()),
	)
	svc := service.New(store, blobs,
		service.WithLogger(log),
		service.WithMetrics(appmetrics.New()),
		service.WithAuditPublisher(publisher),
		service.WithProfiles(intake.ProfilesFromConfig(cfg.Profiles)),
		service.WithLocker(locker),
		service.WithTxRunner(tx),
	)

	if a.sink, err = newSink(ctx, cfg.Notify, log); err != nil {
		return nil, err
	}
	a.relay = notify.New(events, a.sink,
		notify.WithLogger(log),
		notify.WithMetrics(notify.NewMetrics()),
		notify.WithPollInterval(cfg.Notify.PollInterval),
		notify.WithBatchSize(cfg.Notify.BatchSize),
	)

	jwtValidator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience),
	)
	h := handler.New(svc, log,
		authmw.RequireAuth(jwtValidator, log),
		adminmw.RequireAdminToken(cfg.AdminToken, log),
		maxUploadBytes(cfg.Profiles),
	)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(log))
	r.Use(metrics.NewHTTP().Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(a.checks()))
	h.Register(r)

	a.router = r
	return a, nil
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig, log *slog.Logger) (*blob.Store, error) {
	var backend blob.Backend
	switch cfg.Backend {
	case "filesystem":
		fs, err := blobfs.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		backend = fs
	case "s3":
		s3, err := blobs3.NewFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backend = s3
	default:
		log.Warn("blob backend is in memory, whole files are held in the heap and lost on restart")
		backend = blobmemory.New()
	}
	return blob.New(backend,
		blob.WithStagingDir(cfg.StagingDir),
		blob.WithRetryPolicy(blob.RetryPolicy{Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}),
		blob.WithLogger(log),
		blob.WithMetrics(blob.NewMetrics()),
	), nil
}

func newSink(ctx context.Context, cfg config.NotifyConfig, log *slog.Logger) (notify.Sink, error) {
	switch cfg.Sink {
	case "kafka":
		return notify.NewKafkaSink(ctx, notify.KafkaOptions{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}, log)
	case "amqp":
		return notify.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange, log)
	case "none":
		return notify.NewLogSink(log), nil
	}
	return nil, fmt.Errorf("unknown notify sink %q", cfg.Sink)
}

// maxUploadBytes bounds a multipart body: the largest profile's files, counting
// the single-file slots beside the multi-file one, plus room for form fields.
func maxUploadBytes(p config.Profiles) int64 {
	var largest int64
	for _, profile := range []config.Profile{p.Recruitment, p.RequestedDocs, p.Contract} {
		if n := profile.MaxFileSize * int64(profile.MaxFiles+2); n > largest {
			largest = n
		}
	}
	return largest + 1<<20
}

func (a *app) checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if a.db != nil {
		checks["postgres"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}
	return checks
}
