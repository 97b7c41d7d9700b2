package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohanpatil-prog/AI-Call-Audit/assembly"
	"github.com/rohanpatil-prog/AI-Call-Audit/config"
	"github.com/rohanpatil-prog/AI-Call-Audit/gemini"
	"github.com/rohanpatil-prog/AI-Call-Audit/handlers"
	"github.com/rohanpatil-prog/AI-Call-Audit/llm"
	"github.com/rohanpatil-prog/AI-Call-Audit/metrics"
	"github.com/rohanpatil-prog/AI-Call-Audit/middleware"
	"github.com/rohanpatil-prog/AI-Call-Audit/rabbitmq"
	"github.com/rohanpatil-prog/AI-Call-Audit/store"
	"github.com/rohanpatil-prog/AI-Call-Audit/stubllm"
	ws "github.com/rohanpatil-prog/AI-Call-Audit/websocket"
	"github.com/rohanpatil-prog/AI-Call-Audit/workstation"
)

const EndPointMetrics = "/metrics"

func main() {
	// Load configuration
	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Info("Starting the call audit service...")
	metrics.Register()

	client := newAnalysisClient(cfg)

	var trail rabbitmq.EventPublisher = rabbitmq.Nop{}
	if cfg.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingPrefix, 30*time.Second)
		if err != nil {
			log.Warnf("Audit trail disabled, RabbitMQ unavailable: %v", err)
		} else {
			defer publisher.Close()
			trail = publisher
		}
	}

	st := store.New()
	hub := ws.NewHub()
	go hub.Run()

	reviews := workstation.NewManager(st, workstation.Options{
		AdvanceDelay: cfg.AdvanceDelay,
		Broadcaster:  hub,
		Trail:        trail,
	})
	asm := assembly.New(client, st, assembly.Options{
		MediaURL: func(id string) string { return handlers.APIPrefix + "/audits/" + id + "/audio" },
		Trail:    trail,
	})
	h := handlers.NewHandlers(asm, st, reviews, hub, trail, client.SourceName(), cfg.MaxUploadBytes)

	router := setupRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Call audit service starting on port %s", cfg.Port)
		log.Infof("Analysis provider: %s", client.SourceName())
		log.Infof("Rate limit: %d submissions per minute", cfg.RateLimit)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	reviews.Close()
	hub.Stop()

	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetHandler(jsonhandler.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if level == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

func newAnalysisClient(cfg *config.Config) llm.Client {
	if cfg.Provider == config.ProviderStub {
		log.Warn("Using the stub analysis provider")
		return stubllm.NewClient()
	}
	return gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{
		Timeout: cfg.GeminiTimeout,
	})
}

func setupRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(handlers.APIPrefix+handlers.EndPointHealth, EndPointMetrics))

	// The player socket and ranged audio responses are served uncompressed
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{
		`^/api/v1/audits/[^/]+/player$`,
		`^/api/v1/audits/[^/]+/audio$`,
		`^/metrics$`,
	})))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Range"},
		ExposeHeaders:    []string{"Content-Length", "Content-Range", "Accept-Ranges"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	h.RegisterRoutes(router, middleware.RateLimitMiddleware(cfg.RateLimit, time.Minute))
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))

	return router
}
