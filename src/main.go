package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otellogrus"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdk_trace "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"

	"github.com/hedgeai/marketdata/src/data"
	"github.com/hedgeai/marketdata/src/eventconsumers"
	"github.com/hedgeai/marketdata/src/eventmodels"
	"github.com/hedgeai/marketdata/src/eventservices"
	"github.com/hedgeai/marketdata/src/handler"
	"github.com/hedgeai/marketdata/src/utils"
)

const defaultKiteBaseURL = "https://api.kite.trade"

// setupOTelSDK bootstraps the OpenTelemetry pipeline.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func setupOTelSDK(ctx context.Context) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	handleErr := func(inErr error) {
		err = errors.Join(inErr, shutdown(ctx))
	}

	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(prop)

	traceExporter, err := otlptrace.New(ctx, otlptracehttp.NewClient())
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", "marketdata")))

	tracerProvider := sdk_trace.NewTracerProvider(
		sdk_trace.WithBatcher(traceExporter),
		sdk_trace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		handleErr(err)
		return
	}

	meterProvider := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(metricExporter)))
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	if err = runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		handleErr(err)
		return
	}

	return
}

func loadUnderlyingsConfig(filename string) (*eventmodels.UnderlyingsConfigYAML, error) {
	payload, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("loadUnderlyingsConfig: failed to read %s: %w", filename, err)
	}

	var config eventmodels.UnderlyingsConfigYAML
	if err := yaml.Unmarshal(payload, &config); err != nil {
		return nil, fmt.Errorf("loadUnderlyingsConfig: failed to unmarshal %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("loadUnderlyingsConfig: %w", err)
	}

	return &config, nil
}

func envSeconds(name string, fallback time.Duration) time.Duration {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		log.Fatalf("main: invalid %s: %s", name, value)
	}

	return time.Duration(seconds) * time.Second
}

func newStore() data.Store {
	backend := strings.ToLower(os.Getenv("STORAGE_BACKEND"))

	switch backend {
	case "", "file":
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "."
		}

		store, err := data.NewFileStore(dataDir)
		if err != nil {
			log.Fatalf("main: failed to initialize file store: %v", err)
		}

		return store
	case "redis":
		redisAddr, err := utils.GetEnv("REDIS_ADDR")
		if err != nil {
			log.Fatalf("main: STORAGE_BACKEND=redis requires REDIS_ADDR: %v", err)
		}

		return data.NewRedisStore(redis.NewClient(&redis.Options{Addr: redisAddr}))
	default:
		log.Fatalf("main: unknown STORAGE_BACKEND: %s", backend)
		return nil
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Warnf("main: %v, continuing with process environment", err)
	}

	// set up logger
	log.SetLevel(log.InfoLevel)

	log.AddHook(otellogrus.NewHook(otellogrus.WithLevels(
		log.PanicLevel,
		log.FatalLevel,
		log.ErrorLevel,
		log.WarnLevel,
		log.InfoLevel,
	)))

	kiteAPIKey, err := utils.GetEnv("KITE_API_KEY")
	if err != nil {
		log.Fatalf("main: %v", err)
	}

	kiteBaseURL := os.Getenv("KITE_BASE_URL")
	if kiteBaseURL == "" {
		kiteBaseURL = defaultKiteBaseURL
	}

	adminKey := os.Getenv("ADMIN_KEY")
	if adminKey == "" {
		log.Warn("ADMIN_KEY not set, /admin/set_token is disabled")
	}

	port := os.Getenv("PORT")
	if len(port) == 0 {
		port = "3000"
	}

	pollInterval := envSeconds("POLL_INTERVAL_SECONDS", 60*time.Second)
	catalogFloor := envSeconds("CATALOG_REFRESH_SECONDS", data.DefaultCatalogRefreshFloor)

	underlyingsConfigFile := os.Getenv("UNDERLYINGS_CONFIG")
	if underlyingsConfigFile == "" {
		underlyingsConfigFile = filepath.Join(os.Getenv("MARKETDATA_DIR"), "underlyings.yaml")
	}

	config, err := loadUnderlyingsConfig(underlyingsConfigFile)
	if err != nil {
		log.Fatalf("main: %v", err)
	}

	if strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true" {
		otelShutdown, err := setupOTelSDK(ctx)
		if err != nil {
			log.Fatalf("main: failed to set up telemetry: %v", err)
		}

		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				log.Errorf("main: failed to shut down telemetry: %v", err)
			}
		}()
	}

	store := newStore()

	credentials := data.NewCredentialStore(store)
	if err := credentials.Load(ctx); err != nil {
		log.Warnf("main: failed to load persisted credential: %v", err)
	}

	kiteClient := eventservices.NewKiteClient(kiteBaseURL, kiteAPIKey, credentials)

	catalog := data.NewCatalogCache(kiteClient, config.Exchange, catalogFloor)
	spotCache := data.NewSpotCache()
	quoteCache := data.NewQuoteCache()

	service := data.NewMarketDataService(config, catalog, spotCache, quoteCache, credentials, kiteClient, store)
	if err := service.RestoreFromStore(ctx); err != nil {
		log.Warnf("main: %v", err)
	}

	worker := eventconsumers.NewMarketDataWorker(&wg, config.TrackedUnderlyings(), credentials, kiteClient, catalog, spotCache, quoteCache, store, pollInterval)
	worker.Start(ctx)

	router := mux.NewRouter()
	handler.SetupHandler(router, service, adminKey)

	srv := &http.Server{
		Handler: router,
		Addr:    fmt.Sprintf(":%s", port),
	}

	go func() {
		log.Infof("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil {
			if err.Error() != "http: Server closed" {
				log.Fatalf("http: failed to listen and serve: %v", err)
			}
		}
	}()

	// Create channel for shutdown signals.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	<-stop
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down server %s", err)
	} else {
		log.Println("Server gracefully stopped")
	}

	cancel()
	wg.Wait()
}
