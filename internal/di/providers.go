package di

import (
	"context"
	"fmt"
	"time"

	"NeuroBand/internal/domain/repository"
	domsvc "NeuroBand/internal/domain/service"
	"NeuroBand/internal/handler/api"
	internalrepo "NeuroBand/internal/repository"
	icache "NeuroBand/internal/service/cache"
	"NeuroBand/internal/service/ratelimit"
	"NeuroBand/internal/services/generator"
	"NeuroBand/internal/services/spectral"
	"NeuroBand/internal/usecase"
	pkgch "NeuroBand/pkg/clickhouse"
	"NeuroBand/pkg/config"
	xhttp "NeuroBand/pkg/http"
	"NeuroBand/pkg/http/middleware"
	pkgkafka "NeuroBand/pkg/kafka"
	applogger "NeuroBand/pkg/logger"
	"NeuroBand/pkg/metrics"
	"NeuroBand/pkg/server"
	pkgsqlite "NeuroBand/pkg/sqlite"
)

const initTimeout = 10 * time.Second

// ProvideKafkaProducer creates a Kafka producer, or nil when events are disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Events.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithMaxAttempts(cfg.Events.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Events.Timeout, cfg.Events.Timeout),
		pkgkafka.WithSource("neuroband"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideEventPublisher wraps the producer for ingestion events and log digests.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) *internalrepo.KafkaEventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic)
}

// ProvideLogger creates the application logger. With log.digest enabled, warnings and errors
// are also rolled up and published to Kafka.
func ProvideLogger(cfg *config.Config, pub *internalrepo.KafkaEventPublisher) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Digest.Enabled && pub != nil {
		l.AttachDigest(&applogger.DigestConfig{
			Interval:  cfg.Log.Digest.Interval,
			MaxUnique: cfg.Log.Digest.MaxUnique,
			Topic:     cfg.Log.Digest.Topic,
			Publisher: pub,
		})
	}
	return l, l.DetachDigest, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSignalStore opens the configured storage backend and prepares its schema.
func ProvideSignalStore(cfg *config.Config, l *applogger.Logger) (repository.SignalStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	var store repository.SignalStore
	switch cfg.Store.Backend {
	case "clickhouse":
		ch := cfg.Store.ClickHouse
		client, err := pkgch.NewClient(ctx,
			pkgch.WithAddr(ch.Host, ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
			pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		s, err := internalrepo.NewCHSignalStore(ctx, client, ch.Table)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		s.SetLogger(l)
		store = s
	default:
		client, err := pkgsqlite.NewClient(
			pkgsqlite.WithPath(cfg.Store.SQLite.Path),
			pkgsqlite.WithBusyTimeout(cfg.Store.SQLite.BusyTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite client: %w", err)
		}
		s, err := internalrepo.NewSQLiteSignalStore(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		store = s
	}

	l.Info("signal store ready", applogger.String("backend", cfg.Store.Backend))
	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("signal store close error", applogger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideResultCache creates the latest-result cache, or nil when caching is off.
func ProvideResultCache(cfg *config.Config, l *applogger.Logger) (repository.ResultCache, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		rc := icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, nil, err
		}
		l.Info("result cache ready", applogger.String("backend", "redis"), applogger.String("addr", cfg.Cache.Redis.Addr))
		return icache.NewResultCache(rc, cfg.Cache.Key, cfg.Cache.TTL), func() { _ = rc.Close() }, nil
	case "memory":
		return icache.NewResultCache(icache.NewTTLCache(), cfg.Cache.Key, cfg.Cache.TTL), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

func ProvideGenerator() domsvc.SignalGenerator {
	return generator.New()
}

func ProvideAnalyzer() domsvc.SpectralAnalyzer {
	return spectral.NewAnalyzer()
}

// ProvideLimiter creates the ingestion rate limiter, or nil when disabled.
func ProvideLimiter(cfg *config.Config) middleware.Allower {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.RefillPerSec)
}

// ProvideSignalIngestor creates the ingestion use case.
func ProvideSignalIngestor(
	cfg *config.Config,
	store repository.SignalStore,
	gen domsvc.SignalGenerator,
	analyzer domsvc.SpectralAnalyzer,
	m repository.Metrics,
	l *applogger.Logger,
	cache repository.ResultCache,
	pub *internalrepo.KafkaEventPublisher,
) *usecase.SignalIngestor {
	u := usecase.NewSignalIngestor(store, gen, analyzer, m, l, cfg.Analysis.SampleRate)
	if cache != nil {
		u.SetCache(cache)
	}
	if pub != nil {
		u.SetPublisher(pub)
	}
	return u
}

// ProvideEEGHandler creates the HTTP handler for the EEG endpoints.
func ProvideEEGHandler(
	cfg *config.Config,
	l *applogger.Logger,
	ing *usecase.SignalIngestor,
	store repository.SignalStore,
	limiter middleware.Allower,
) *api.EEGEchoHandler {
	h := api.NewEEGEchoHandler(l, ing, store, cfg.Analysis.UploadLimitBytes)
	if limiter != nil {
		h.SetLimiter(limiter)
	}
	return h
}

// ProvideHTTPServer creates the Echo server with all route handlers registered.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.EEGEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, []xhttp.Handler{h},
		xhttp.WithAddr(cfg.Server.Host, cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.BodyLimit()),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server) *server.App {
	return server.New(cfg, l, srv)
}
