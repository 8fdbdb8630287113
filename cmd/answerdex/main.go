package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/config"
	"github.com/kailas-cloud/answerdex/internal/db"
	dbRedis "github.com/kailas-cloud/answerdex/internal/db/redis"
	"github.com/kailas-cloud/answerdex/internal/domain"
	logpkg "github.com/kailas-cloud/answerdex/internal/logger"
	"github.com/kailas-cloud/answerdex/internal/metrics"
	catalogrepo "github.com/kailas-cloud/answerdex/internal/repository/catalog"
	"github.com/kailas-cloud/answerdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/answerdex/internal/repository/search"
	bedrockTr "github.com/kailas-cloud/answerdex/internal/transport/bedrock"
	chiTransport "github.com/kailas-cloud/answerdex/internal/transport/chi"
	openaiTr "github.com/kailas-cloud/answerdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/answerdex/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/answerdex/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/answerdex/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/answerdex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/answerdex/internal/usecase/retrieval"
	"github.com/kailas-cloud/answerdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting answerdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("built", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Strings("store_addrs", cfg.Store.Addrs),
	)

	// Create store based on driver
	var store db.Store
	switch cfg.Store.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Store.Addrs,
			Password: cfg.Store.Password,
		})
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the store to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Store not ready", zap.Error(err))
	}
	logger.Info("Connected to store")

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterPipelineMetrics()

	// Build embedder chain — composition root
	queryEmbedder, baseEmbedder := buildQueryEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	generator, genChecker, genModel, err := buildGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create generator", zap.Error(err))
	}
	instrumentedGen := generationuc.NewInstrumented(generator, cfg.Generation.Provider, genModel, logger)
	logger.Info("Generator created",
		zap.String("provider", cfg.Generation.Provider),
		zap.String("model", genModel),
	)

	// Create repositories (domain-native, no adapters)
	catalogRepo := catalogrepo.New(store, catalogrepo.Config{
		KeyPrefix:       cfg.Catalog.KeyPrefix,
		VectorDim:       cfg.Embedding.Dimensions,
		VectorAlgorithm: cfg.Catalog.VectorAlgorithm,
	})
	// Idempotent: replicas racing on first boot are absorbed inside.
	if err := catalogRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create catalog index", zap.Error(err))
	}
	searchRepo := searchrepo.New(store, cfg.Catalog.KeyPrefix)

	// Create use case services
	retrievalSvc := retrievaluc.New(searchRepo, queryEmbedder, catalogRepo, logger)
	answerSvc := answeruc.New(
		retrievalSvc, catalogRepo, instrumentedGen,
		time.Duration(cfg.Pipeline.TimeoutSec)*time.Second, logger,
	)

	// Health service. The base embedder is passed directly so the check
	// reaches the provider instead of a decorator that hides it.
	healthSvc := healthuc.New(store, baseEmbedder, genChecker)

	// Create chi server
	server := chiTransport.NewServer(answerSvc, retrievalSvc, catalogRepo, healthSvc, logger).
		WithDefaults(chiTransport.Defaults{
			Strategy:      cfg.Fusion.Strategy,
			WeightLexical: cfg.Fusion.WeightLexical,
			WeightVector:  cfg.Fusion.WeightVector,
		})

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// The base transport embedder is returned alongside so the health check can
// reach the provider through the decorators.
func buildQueryEmbedder(
	cfg config.Config, store db.Store, logger *zap.Logger,
) (domain.Embedder, *openaiTr.Embedder) {
	// Base provider (with transport metrics built-in)
	base := openaiTr.NewEmbedder(&openaiTr.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Embedding.Cache {
		embedder = embcache.New(base, store, embcache.Config{
			KeyPrefix: cfg.Catalog.KeyPrefix,
			Model:     cfg.Embedding.Model,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, "openai", cfg.Embedding.Model, logger)

	// Instruction prefix (outermost — cache key includes instruction)
	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction), base
	}

	return embedder, base
}

// buildGenerator selects the generation provider. The returned checker feeds
// the health service; Bedrock exposes no cheap liveness call, so it stays nil
// there and the health report omits the check.
func buildGenerator(
	ctx context.Context, cfg config.Config, logger *zap.Logger,
) (domain.Generator, healthuc.GenerationChecker, string, error) {
	timeout := time.Duration(cfg.Generation.TimeoutSec) * time.Second

	if cfg.Generation.Provider == "bedrock" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region()),
			awsconfig.WithHTTPClient(&http.Client{Timeout: timeout}),
		)
		if err != nil {
			return nil, nil, "", fmt.Errorf("load aws config: %w", err)
		}
		model := cfg.Generation.Model
		if model == "" {
			model = bedrockTr.DefaultModelID
		}
		g := bedrockTr.New(bedrockruntime.NewFromConfig(awsCfg), &bedrockTr.Config{
			ModelID:     model,
			Temperature: float64(cfg.Generation.Temperature),
			MaxTokens:   cfg.Generation.MaxTokens,
			Logger:      logger,
		})
		return g, nil, model, nil
	}

	g := openaiTr.NewGenerator(&openaiTr.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     timeout,
		Provider:    cfg.Generation.Provider,
		Logger:      logger,
	})
	return g, g, cfg.Generation.Model, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]map[string]string{
						"error": {"code": "internal_error", "message": "internal error"},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request.
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
