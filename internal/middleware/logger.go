package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
)

// RequestLogger writes one access log line per request through zap.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []interface{}{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"requestId", chimw.GetReqID(r.Context()),
					"remote", r.RemoteAddr,
				}
				switch {
				case status >= http.StatusInternalServerError:
					log.Error("http request", fields...)
				case status >= http.StatusBadRequest:
					log.Warn("http request", fields...)
				default:
					log.Info("http request", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
