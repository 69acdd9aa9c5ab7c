package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/markupx/backend/src/config"
	"github.com/username/markupx/backend/src/handlers"
	"github.com/username/markupx/backend/src/logger"
	"github.com/username/markupx/backend/src/parsers/mt5"
	"github.com/username/markupx/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(config.Cfg.AllowedOrigins))
	for _, origin := range config.Cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, Content-Disposition")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("MarkupX backend server starting...")

	httpClient := &http.Client{Timeout: config.Cfg.HTTPTimeout}

	// External-fetch caches are owned here and injected into the services, one
	// per process, with explicit TTL windows.
	fxCache := cache.New(config.Cfg.FXCacheTTL, 2*config.Cfg.FXCacheTTL)
	priceCache := cache.New(config.Cfg.PriceCacheTTL, 2*config.Cfg.PriceCacheTTL)

	rateService := services.NewRateService(httpClient, config.Cfg.FXAPIURLs, fxCache)
	marketService := services.NewMarketDataService(httpClient, config.Cfg.StooqBaseURL, priceCache)
	reportService := services.NewReportService(mt5.NewParser(), rateService, marketService, config.Cfg.ComputeWorkers)

	reportHandler := handlers.NewReportHandler(reportService)
	ratesHandler := handlers.NewRatesHandler(rateService)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/report", reportHandler.HandleGenerateReport)
		r.Post("/report/export", reportHandler.HandleExportCSV)
		r.Get("/rates", ratesHandler.HandleGetRates)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
	})

	server := &http.Server{
		Addr:         ":" + config.Cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.L.Info("Server listening", "port", config.Cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Server failed", "error", err)
	}
}
