package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/bloodlink/bloodlink/internal/config"
	"github.com/bloodlink/bloodlink/internal/infra/database"
	"github.com/bloodlink/bloodlink/internal/infra/repository"
	"github.com/bloodlink/bloodlink/internal/present/rest"
	"github.com/bloodlink/bloodlink/internal/present/rest/middleware"
	"github.com/bloodlink/bloodlink/internal/service"
	"github.com/bloodlink/bloodlink/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			panic("failed to set up tracing: " + err.Error())
		}
		defer shutdown(ctx)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	registry := service.NewConnectionRegistry()
	signal := service.NewSignalService(rdb, registry)
	go signal.Listen(ctx)

	classifier := service.NewClassifierService(conf.Server.ClassifierEndpoint, mc)

	requestRepo := repository.NewRequestRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	eligibilityUC := usecase.NewEligibilityUsecase(donationRepo)
	requestUC := usecase.NewRequestUsecase(requestRepo, donationRepo, directoryRepo, signal, classifier, eligibilityUC)
	donationUC := usecase.NewDonationUsecase(donationRepo)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("bloodlink"))
	}
	e.Use(middleware.IdentifyIdentity)

	handler := rest.NewHandler(requestUC, donationUC, eligibilityUC, registry)
	handler.RegisterRoutes(e)

	slog.Info("starting server",
		slog.String("addr", conf.Server.ListenAddr),
		slog.String("module", "main"),
	)
	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("bloodlink"),
		)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
