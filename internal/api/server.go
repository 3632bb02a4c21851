package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the handlers, /metrics and the logging middleware
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", h.AnalyzeHandler).Methods("POST")
	api.HandleFunc("/tests", h.ListTestsHandler).Methods("GET")
	api.HandleFunc("/tests", h.CreateTestHandler).Methods("POST")
	api.HandleFunc("/tests/{id}", h.GetTestHandler).Methods("GET")
	api.HandleFunc("/tests/{id}", h.DeleteTestHandler).Methods("DELETE")
	api.HandleFunc("/tests/{id}/analyze", h.AnalyzeTestHandler).Methods("POST")
	api.HandleFunc("/tests/{id}/methods", h.CompareHandler).Methods("GET")
	api.HandleFunc("/tests/{id}/overrides/{kind}", h.SetOverrideHandler).Methods("PUT")
	api.HandleFunc("/tests/{id}/overrides/{kind}", h.ClearOverrideHandler).Methods("DELETE")
	api.HandleFunc("/zones/estimate", h.EstimateZonesHandler).Methods("GET")

	router.HandleFunc("/health", h.HealthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())

	router.Use(loggingMiddleware)
	return router
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully
func Serve(ctx context.Context, addr string, h *Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		log.Printf("  POST   /api/analyze                     - Analyze stages without storing")
		log.Printf("  GET    /api/tests                       - List stored tests")
		log.Printf("  POST   /api/tests                       - Store a test")
		log.Printf("  GET    /api/tests/{id}                  - Test detail")
		log.Printf("  POST   /api/tests/{id}/analyze          - Analyze a stored test")
		log.Printf("  PUT    /api/tests/{id}/overrides/{kind} - Set a manual threshold")
		log.Printf("  GET    /metrics                         - Prometheus metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("Server stopped")
	return nil
}

// loggingMiddleware logs each request with its duration
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
