package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"artshift/internal/history"
	"artshift/internal/http/handlers"
	httpapi "artshift/internal/http/httpapi"
	"artshift/internal/infra"
	"artshift/internal/infra/credentials"
	"artshift/internal/infra/geoip"
	"artshift/internal/middleware"
	"artshift/internal/prefs"
	"artshift/internal/providers/gemini"
	"artshift/internal/storage"
	"artshift/internal/studio"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	kv, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open storage")
	}
	defer closeStore()

	apiKey, err := credentials.NewStore(kv).ResolveGeminiAPIKey(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("gemini api key unavailable; set GEMINI_API_KEY or run geminikey")
	}

	providerLogger := logger.With().Str("component", "gemini").Logger()
	client, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:     apiKey,
		BaseURL:    cfg.GeminiBaseURL,
		TextModel:  cfg.GeminiTextModel,
		ImageModel: cfg.GeminiImageModel,
		HTTPClient: &http.Client{Timeout: cfg.TransformTimeout},
		Logger:     &providerLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create gemini client")
	}

	hist := history.NewStore(kv, logger.With().Str("component", "history").Logger())
	if err := hist.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load history")
	}

	st, err := studio.New(studio.Options{
		Detector:         client,
		Synthesizer:      client,
		History:          hist,
		Logger:           logger.With().Str("component", "studio").Logger(),
		DetectTimeout:    cfg.DetectTimeout,
		TransformTimeout: cfg.TransformTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create studio")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	app := handlers.NewApp(cfg, logger, st, hist, prefs.NewStore(kv))
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		DefaultLocale:     cfg.DefaultLocale,
		CountryLookup:     lookup,
		RateLimitPerMin:   cfg.RateLimitPerMin,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("text_model", client.TextModel()).
			Str("image_model", client.ImageModel()).
			Msg("API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
