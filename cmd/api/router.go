package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/FACorreiaa/coverage-reports/pkg/apierrors"
	"github.com/FACorreiaa/coverage-reports/pkg/middleware"
	"github.com/FACorreiaa/coverage-reports/pkg/storage"
)

// NewRouter mounts every route on a chi router.
func NewRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: d.Config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	if d.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}
	r.Get("/data/{name}", serveDataFile(d.FileStorage, d.Logger))

	limiter := middleware.NewRateLimiter(float64(d.Config.Server.RateLimitPerSecond), d.Config.Server.RateLimitBurst, d.Logger)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Use(render.SetContentType(render.ContentTypeJSON))
		d.ImportHandler.Routes(r)
		d.ReportHandler.Routes(r)
	})

	return r
}

// serveDataFile streams a bundled sample file, so the presets can point at
// the API itself.
func serveDataFile(st storage.Storage, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		info, err := st.Stat(r.Context(), name)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				apierrors.Write(w, r, apierrors.New(http.StatusNotFound, "NOT_FOUND", "file not found"))
				return
			}
			logger.ErrorContext(r.Context(), "failed to stat data file", slog.String("name", name), slog.Any("error", err))
			apierrors.Write(w, r, apierrors.Internal())
			return
		}

		rc, err := st.Open(r.Context(), name)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to open data file", slog.String("name", name), slog.Any("error", err))
			apierrors.Write(w, r, apierrors.Internal())
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", info.ContentType)
		if _, err := io.Copy(w, rc); err != nil {
			logger.WarnContext(r.Context(), "data file copy interrupted", slog.String("name", name), slog.Any("error", err))
		}
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
