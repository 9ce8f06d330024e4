package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"darsly/internal/utils"
)

// PrometheusMiddleware records request counts, latencies and in-flight
// requests. The path label uses the mux route template so IDs do not blow up
// the cardinality.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		utils.InFlightRequests.Inc()
		defer utils.InFlightRequests.Dec()

		lrw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lrw, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				path = template
			}
		}

		status := strconv.Itoa(lrw.status())
		utils.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		utils.HTTPRequestDurationSeconds.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(data []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	return w.ResponseWriter.Write(data)
}

func (w *statusResponseWriter) status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}
