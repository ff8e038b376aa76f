package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"chat-shim/internal/config"
	"chat-shim/internal/contactcache"
	"chat-shim/internal/derive"
	"chat-shim/internal/hooks"
	"chat-shim/internal/host"
	"chat-shim/internal/hostlink"
	"chat-shim/internal/lid"
	"chat-shim/internal/models"
	"chat-shim/internal/observability"
	"chat-shim/internal/ops"
	"chat-shim/internal/patch"
	"chat-shim/internal/postgres"
	"chat-shim/internal/rabbitmq"
	"chat-shim/internal/readiness"
	"chat-shim/internal/repair"
	"chat-shim/internal/telemetry"
)

const auditRoutingKey = "audit.events"

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing setup failed")
	}

	store, err := postgres.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("host database unavailable")
	}
	defer store.Close()

	var contacts host.ContactStore = store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		contacts = contactcache.New(store, rdb, cfg.ContactCacheTTL, logger)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("contact cache enabled")
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange, logger)
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, "chat-shim", cfg.Env, logger)

	adapter := lid.NewAdapter(store, store, logger)
	repairSvc := repair.NewService(store, contacts, store, adapter, audit, logger)

	originals := hooks.Originals{
		MediaKind:        baseMediaKind,
		TypeLabel:        baseTypeLabel,
		IsUnread:         baseIsUnread,
		CreateChatRecord: store.CreateChatRecord,
		FindChat:         store.FindChat,
	}
	if store.Capabilities().StrictCoerce {
		originals.CoerceLID = store.CoerceUserLID
	}
	table := hooks.NewTable(logger, originals)

	// High-level creation dispatches through the table, resolved per call so
	// it picks up wrappers the moment they install.
	store.SetRecordDispatch(func(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error) {
		return table.CreateChatRecord.Fn()(ctx, id, opts)
	})

	derived := derive.NewRegistry(logger)
	hub := readiness.NewHub(logger)
	patch.New(table, repairSvc, derived, hub, cfg.PatchDelay, logger).Arm()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chat-shim"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/ws/host", hostlink.NewHandler(hub, table, audit, logger).Handle)
	ops.Register(router, ops.Surface{
		Table:         table,
		Derived:       derived,
		Hub:           hub,
		Audit:         audit,
		PublisherMode: rabbitmq.PublisherMode(publisher),
		Log:           logger,
	}, cfg.DebugRoutes, cfg.OpsToken)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.Env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "chat-shim").Logger()
}

// setupTracing wires the OTLP exporter. Without an endpoint the global
// tracer stays a noop and spans cost nothing.
func setupTracing(ctx context.Context, cfg config.Config, log zerolog.Logger) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		log.Info().Msg("tracing disabled, no OTLP endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "chat-shim"),
			attribute.String("deployment.environment", cfg.Env),
		)),
	)
	otel.SetTracerProvider(provider)
	log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("tracing enabled")
	return provider.Shutdown, nil
}

// The host's base classifiers read a concrete payload; walking wrapper
// envelopes is the shim's contribution on top of them.
func baseMediaKind(env *models.MessageEnvelope) models.MediaKind {
	switch {
	case env == nil:
		return models.MediaKindNone
	case env.Image != nil:
		return models.MediaKindImage
	case env.Video != nil:
		return models.MediaKindVideo
	case env.Audio != nil:
		return models.MediaKindAudio
	case env.Document != nil:
		return models.MediaKindDocument
	case env.Sticker != nil:
		return models.MediaKindSticker
	default:
		return models.MediaKindNone
	}
}

func baseTypeLabel(env *models.MessageEnvelope) string {
	if kind := baseMediaKind(env); kind != models.MediaKindNone {
		return string(kind)
	}
	return models.TypeLabelText
}

func baseIsUnread(msg *models.Message) bool {
	return msg != nil && !msg.FromMe
}
