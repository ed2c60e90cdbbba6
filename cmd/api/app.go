package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/RonitKhanna333/sih-final-2/internal/api/handlers"
	"github.com/RonitKhanna333/sih-final-2/internal/api/middleware"
	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/internal/config"
	"github.com/RonitKhanna333/sih-final-2/internal/edgecase"
	"github.com/RonitKhanna333/sih-final-2/internal/embeddings"
	"github.com/RonitKhanna333/sih-final-2/internal/googleai"
	"github.com/RonitKhanna333/sih-final-2/internal/jobs"
	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/narrative"
	"github.com/RonitKhanna333/sih-final-2/internal/observability"
	"github.com/RonitKhanna333/sih-final-2/internal/onnx"
	"github.com/RonitKhanna333/sih-final-2/internal/openai"
	"github.com/RonitKhanna333/sih-final-2/internal/repository"
	"github.com/RonitKhanna333/sih-final-2/internal/service"
	"github.com/RonitKhanna333/sih-final-2/internal/workers"
	"github.com/RonitKhanna333/sih-final-2/pkg/groq"
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	db             *pgxpool.Pool
	server         *http.Server
	river          *river.Client[pgx.Tx]
	jobs           *jobs.RiverJobInserter
	closers        []io.Closer
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *observability.Metrics
}

const (
	riverQueueDepthInterval = 15 * time.Second
	remoteEmbedConcurrency  = 4
)

// routes groups the handlers mounted by newHTTPServer.
type routes struct {
	health   *handlers.HealthHandler
	feedback *handlers.FeedbackHandler
	insights *handlers.InsightsHandler
	ai       *handlers.AIHandler
	legal    *handlers.LegalHandler
	metrics  http.Handler
}

// setupMetrics creates the meter provider, an optional Prometheus handler and the
// application metrics. All three are nil when metrics are disabled.
func setupMetrics(cfg *config.Config) (*sdkmetric.MeterProvider, http.Handler, *observability.Metrics, error) {
	mp, promHandler, err := observability.NewMeterProvider(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create meter provider: %w", err)
	}

	if mp == nil {
		return nil, nil, nil, nil
	}

	metrics, err := observability.NewMetrics(mp.Meter("policy-feedback"))
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(context.Background(), mp); err2 != nil {
			slog.Error("shutdown meter provider after metrics error", "error", err2)
		}

		return nil, nil, nil, fmt.Errorf("create metrics: %w", err)
	}

	return mp, promHandler, metrics, nil
}

// newEmbeddingProvider builds the primary embedding backend for EMBEDDING_PROVIDER.
// An empty provider yields embeddings.Unavailable, which sends the pipeline to TF-IDF.
// The returned closer is nil unless the backend holds native resources.
func newEmbeddingProvider(
	ctx context.Context, cfg *config.Config, metrics *observability.Metrics,
) (embeddings.Provider, io.Closer, error) {
	var (
		embedMetrics observability.EmbeddingMetrics
		cacheMetrics observability.CacheMetrics
	)

	if metrics != nil {
		embedMetrics = metrics.Embeddings
		cacheMetrics = metrics.Cache
	}

	remoteOpts := []embeddings.RemoteOption{
		embeddings.WithCacheSize(cfg.EmbeddingCacheSize),
		embeddings.WithRateLimit(cfg.EmbeddingRateLimit),
		embeddings.WithConcurrency(remoteEmbedConcurrency),
		embeddings.WithMetrics(embedMetrics, cacheMetrics),
	}

	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOpenAI:
		client := openai.NewClient(cfg.EmbeddingProviderAPIKey,
			openai.WithModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		)

		p, err := embeddings.NewRemoteProvider(embeddings.ProviderOpenAI, client, remoteOpts...)

		return p, nil, err
	case config.EmbeddingProviderGoogle:
		client, err := googleai.NewClient(ctx, cfg.EmbeddingProviderAPIKey,
			googleai.WithModel(cfg.EmbeddingModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("create google embedding client: %w", err)
		}

		p, err := embeddings.NewRemoteProvider(embeddings.ProviderGoogle, client, remoteOpts...)

		return p, nil, err
	case config.EmbeddingProviderONNX:
		encoder, err := onnx.NewEncoder(cfg.ONNXRuntimeLibPath, cfg.EmbeddingModelDir)
		if err != nil {
			// A missing local model degrades the debate map; it does not stop the server.
			slog.Warn("ONNX embedding model unavailable, using TF-IDF fallback", "dir", cfg.EmbeddingModelDir, "error", err)

			return embeddings.Unavailable{}, nil, nil
		}

		return embeddings.NewONNXProvider(encoder, embedMetrics), encoder, nil
	case config.EmbeddingProviderMock:
		return embeddings.NewMockProvider(cfg.EmbeddingDimensions), nil, nil
	default:
		slog.Info("No embedding provider configured, using TF-IDF fallback")

		return embeddings.Unavailable{}, nil, nil
	}
}

// newSentimentAnalyzer loads the star-rating model when SENTIMENT_MODEL_DIR is set.
func newSentimentAnalyzer(cfg *config.Config) (*classifier.SentimentAnalyzer, io.Closer) {
	if cfg.SentimentModelDir == "" {
		return classifier.NewSentimentAnalyzer(nil), nil
	}

	rater, err := onnx.NewStarRater(cfg.ONNXRuntimeLibPath, cfg.SentimentModelDir)
	if err != nil {
		slog.Warn("Sentiment model unavailable, using keyword heuristic", "dir", cfg.SentimentModelDir, "error", err)

		return classifier.NewSentimentAnalyzer(nil), nil
	}

	slog.Info("Sentiment model loaded", "dir", cfg.SentimentModelDir)

	return classifier.NewSentimentAnalyzer(rater), rater
}

func newLLMClient(cfg *config.Config, metrics *observability.Metrics) *llm.Client {
	var llmMetrics observability.LLMMetrics
	if metrics != nil {
		llmMetrics = metrics.LLM
	}

	chat := groq.NewClientWithOptions(groq.ClientOptions{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.GroqAPIKey,
		Timeout: cfg.LLMTimeout,
	})

	return llm.NewClient(chat, cfg.GroqAPIKey,
		llm.WithModels(cfg.LLMModels),
		llm.WithTimeout(cfg.LLMTimeout),
		llm.WithRateLimit(cfg.LLMRateLimit),
		llm.WithMockMode(cfg.AIMockMode),
		llm.WithMetrics(llmMetrics),
	)
}

// NewApp builds and wires all components. It does not start the HTTP server or River;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (_ *App, err error) {
	var (
		meterProvider *sdkmetric.MeterProvider
		promHandler   http.Handler
		metrics       *observability.Metrics
	)

	if cfg.OtelMetricsExporter == "" {
		slog.Warn("metrics not enabled (OTEL_METRICS_EXPORTER empty or unset)")
	} else {
		meterProvider, promHandler, metrics, err = setupMetrics(cfg)
		if err != nil {
			return nil, err
		}
	}

	var tracerProvider *sdktrace.TracerProvider

	if cfg.OtelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(cfg)
		if err != nil {
			if err2 := shutdownObservability(context.Background(), nil, meterProvider); err2 != nil {
				slog.Error("shutdown meter provider after tracer provider error", "error", err2)
			}

			return nil, fmt.Errorf("create tracer provider: %w", err)
		}
	}

	var closers []io.Closer

	defer func() {
		if err == nil {
			return
		}

		closeAll(closers)

		if err2 := shutdownObservability(context.Background(), tracerProvider, meterProvider); err2 != nil {
			slog.Error("shutdown observability after init error", "error", err2)
		}
	}()

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	var (
		apiMetrics      observability.APIMetrics
		cacheMetrics    observability.CacheMetrics
		pipelineMetrics observability.PipelineMetrics
	)

	if metrics != nil {
		apiMetrics = metrics.API
		cacheMetrics = metrics.Cache
		pipelineMetrics = metrics.Pipeline
	}

	primary, encoderCloser, err := newEmbeddingProvider(ctx, cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider: %w", err)
	}

	if encoderCloser != nil {
		closers = append(closers, encoderCloser)
	}

	sentiment, raterCloser := newSentimentAnalyzer(cfg)
	if raterCloser != nil {
		closers = append(closers, raterCloser)
	}

	llmClient := newLLMClient(cfg, metrics)

	edgeCases, err := edgecase.Load(ctx, cfg.EdgeCasesPath, primary)
	if err != nil {
		return nil, fmt.Errorf("load edge cases: %w", err)
	}

	feedbackRepo := repository.NewFeedbackRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	legalRepo := repository.NewLegalPrecedentRepository(db)

	projection := service.NewProjectionEngine(service.ProjectionEngineParams{
		Primary: primary,
		Metrics: pipelineMetrics,
	})

	debateMapService := service.NewDebateMapService(service.DebateMapServiceParams{
		Repo:         feedbackRepo,
		Projector:    projection,
		Narrator:     narrative.New(llmClient),
		CacheTTL:     cfg.DebateMapCacheTTL,
		Metrics:      pipelineMetrics,
		CacheMetrics: cacheMetrics,
	})

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewDebateMapRefreshWorker(debateMapService))
	river.AddWorker(riverWorkers, workers.NewLLMWarmupWorker(llmClient))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.RiverWorkers},
		},
		Workers:      riverWorkers,
		ErrorHandler: &jobs.ErrorHandler{},
		MaxAttempts:  cfg.RiverMaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("create River client: %w", err)
	}

	jobInserter := jobs.NewRiverJobInserter(riverClient, cfg.RiverMaxAttempts)

	var refresher service.DebateMapRefresher
	if cfg.DebateMapRefreshOnIngest {
		refresher = jobInserter
	}

	feedbackService := service.NewFeedbackService(service.FeedbackServiceParams{
		Repo:      feedbackRepo,
		Sentiment: sentiment,
		EdgeCases: edgeCases,
		Refresher: refresher,
	})

	aiHealthService := service.NewAIHealthService(service.AIHealthServiceParams{
		Feedback:     feedbackRepo,
		Policies:     policyRepo,
		LLM:          llmClient,
		Embeddings:   projection,
		Sentiment:    sentiment,
		CacheMetrics: cacheMetrics,
	})

	r := routes{
		health:   handlers.NewHealthHandler(),
		feedback: handlers.NewFeedbackHandler(feedbackService),
		insights: handlers.NewInsightsHandler(
			service.NewInsightsService(feedbackRepo, llmClient),
			service.NewClusteringService(feedbackRepo, projection),
			debateMapService,
		),
		legal: handlers.NewLegalHandler(service.NewLegalService(legalRepo)),
		ai: handlers.NewAIHandler(handlers.AIHandlerParams{
			Health: aiHealthService,
			Simulator: service.NewSimulationService(service.SimulationServiceParams{
				Repo:      feedbackRepo,
				Embedder:  projection,
				Completer: llmClient,
			}),
			Documents: service.NewDocumentService(service.DocumentServiceParams{
				Repo:      feedbackRepo,
				Embedder:  projection,
				Completer: llmClient,
			}),
			Assistant: service.NewChatService(service.ChatServiceParams{
				Repo:      feedbackRepo,
				Completer: llmClient,
				Status:    llmClient,
			}),
		}),
		metrics: promHandler,
	}

	slog.Info("AI components ready",
		"embedding_provider", primary.Name(),
		"embedding_available", primary.Available(),
		"sentiment_model", sentiment.ModelLoaded(),
		"edge_cases", edgeCases.Len(),
		"llm_mock_mode", cfg.AIMockMode,
		"debate_map_refresh_on_ingest", cfg.DebateMapRefreshOnIngest,
	)

	return &App{
		cfg:            cfg,
		db:             db,
		server:         newHTTPServer(cfg, r, apiMetrics, meterProvider, tracerProvider),
		river:          riverClient,
		jobs:           jobInserter,
		closers:        closers,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		metrics:        metrics,
	}, nil
}

// newHTTPServer builds the HTTP server and muxes (no auth on /health and /metrics, API key on /v1/).
// Handler chain: RequestID -> otelhttp(Logging(Metrics(MaxBody(mux)))) so access logs get trace_id/span_id from context.
func newHTTPServer(
	cfg *config.Config,
	r routes,
	apiMetrics observability.APIMetrics,
	meterProvider *sdkmetric.MeterProvider,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	public := http.NewServeMux()
	public.HandleFunc("GET /health", r.health.Check)

	if r.metrics != nil {
		public.Handle("GET /metrics", r.metrics)
	}

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/feedback", r.feedback.Create)
	protected.HandleFunc("GET /v1/feedback", r.feedback.List)
	protected.HandleFunc("GET /v1/feedback/{id}", r.feedback.Get)
	protected.HandleFunc("POST /v1/analysis", r.feedback.Analyze)

	protected.HandleFunc("POST /v1/feedback/cluster", r.insights.Cluster)
	protected.HandleFunc("POST /v1/feedback/summary", r.insights.Summary)
	protected.HandleFunc("POST /v1/feedback/summarize-filtered", r.insights.SummarizeFiltered)
	protected.HandleFunc("GET /v1/analytics", r.insights.Analytics)
	protected.HandleFunc("GET /v1/analytics/kpis", r.insights.KPIs)
	protected.HandleFunc("GET /v1/analytics/word-frequencies", r.insights.WordFrequencies)
	protected.HandleFunc("GET /v1/analytics/debate-map", r.insights.DebateMap)

	protected.HandleFunc("GET /v1/ai/health", r.ai.Health)
	protected.HandleFunc("POST /v1/ai/simulate", r.ai.Simulate)
	protected.HandleFunc("POST /v1/ai/documents", r.ai.Documents)
	protected.HandleFunc("POST /v1/ai/chat", r.ai.Chat)

	protected.HandleFunc("GET /v1/legal/search", r.legal.Search)

	mux := http.NewServeMux()
	mux.Handle("/v1/", middleware.Auth(cfg.APIKey)(protected))
	mux.Handle("/", public)

	otelOpts := []otelhttp.Option{
		// Skip tracing and HTTP metrics for health checks to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	}
	if meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(meterProvider))
	}

	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	var inner http.Handler = mux
	inner = middleware.MaxBody(cfg.MaxRequestBodyBytes, apiMetrics)(inner)
	inner = middleware.Metrics(apiMetrics)(inner)
	// Logging runs inside otelhttp so r.Context() has the span when we log.
	inner = middleware.Logging(inner)

	handler := otelhttp.NewHandler(inner, "policy-feedback-api", otelOpts...)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 120 * time.Second // debate map regeneration and LLM fallbacks run long
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and River, then blocks until ctx is cancelled (e.g. signal)
// or a component fails. When ctx is cancelled or a component fails, it cancels the internal
// River context so River and the queue depth poller stop before Run returns. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	if a.metrics != nil && a.metrics.Jobs != nil {
		go runRiverQueueDepthPoller(riverCtx, a.db, a.metrics.Jobs)
	}

	if err := a.river.Start(riverCtx); err != nil {
		return fmt.Errorf("river: %w", err)
	}

	if err := a.jobs.EnqueueLLMWarmup(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to enqueue LLM warmup", "error", err)
	}

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		cancelRiver()

		return err
	case <-ctx.Done():
		cancelRiver()

		return nil
	}
}

// runRiverQueueDepthPoller periodically updates the River default-queue depth gauge.
func runRiverQueueDepthPoller(ctx context.Context, db *pgxpool.Pool, jobMetrics observability.JobMetrics) {
	ticker := time.NewTicker(riverQueueDepthInterval)
	defer ticker.Stop()

	update := func() {
		var count int

		err := db.QueryRow(ctx,
			`SELECT COUNT(*) FROM river_job WHERE queue = $1 AND state IN ($2, $3, $4)`,
			river.QueueDefault,
			rivertype.JobStateAvailable, rivertype.JobStateRetryable, rivertype.JobStateScheduled,
		).Scan(&count)
		if err != nil {
			slog.WarnContext(ctx, "river queue depth poll failed", "error", err)

			return
		}

		jobMetrics.SetRiverQueueDepth(count)
	}

	update()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) error {
	var first error

	if tracer != nil {
		if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
			first = err
		}
	}

	if meter != nil {
		if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
			if first == nil {
				first = err
			} else {
				slog.Error("shutdown meter provider", "error", err)
			}
		}
	}

	return first
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			slog.Error("close model session", "error", err)
		}
	}
}

// Shutdown stops the server and River in order, then releases model sessions. Call after Run returns.
// Observability is shut down once via defer; its error is returned only when server and River shut down successfully.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer closeAll(a.closers)

	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if stopErr := a.river.Stop(ctx); stopErr != nil {
			slog.Error("river stop during server shutdown", "error", stopErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if err = a.river.Stop(ctx); err != nil {
		return fmt.Errorf("river stop: %w", err)
	}

	return nil
}
