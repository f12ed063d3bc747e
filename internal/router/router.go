package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sched-reader/internal/endpoints"
	"sched-reader/internal/util"
)

const shutdownTimeout = 5 * time.Second

func NewRouter(latest endpoints.SnapshotReader, gatherer prometheus.Gatherer, logger *util.SchedLogger) *mux.Router {
	r := mux.NewRouter()

	addRoutes(r, latest, gatherer, logger)

	r.Use(loggingMiddleware(logger))

	return r
}

func addRoutes(r *mux.Router, latest endpoints.SnapshotReader, gatherer prometheus.Gatherer, logger *util.SchedLogger) {
	measurementsHandler := &endpoints.Measurements{}
	measurementsHandler.Init(latest, logger)

	r.HandleFunc("/api/v1/measurements/latest", measurementsHandler.GetLatestHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", measurementsHandler.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Serve runs server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, server *http.Server, logger *util.SchedLogger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		if err := gracefulShutdown(server, shutdownTimeout); err != nil {
			logger.Error("server stopped with error", zap.Error(err))
			return err
		}
		logger.Info("Server stopped gracefully.")
		return nil
	}
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}

func loggingMiddleware(logger *util.SchedLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request", zap.String("method", r.Method), zap.String("uri", r.RequestURI))
			next.ServeHTTP(w, r)
		})
	}
}
