package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"BizBooksPlatform/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with a trace id, taken from X-Request-ID
// or generated, and writes one access log line when it completes.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(RequestIDHeader)
			if traceID == "" || len(traceID) > 128 {
				traceID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, traceID)

			ctx := logger.WithTraceID(r.Context(), traceID)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			fields := []logger.Field{
				logger.CtxField(ctx),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", rec.status),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", clientIP(r, nil)),
			}
			switch {
			case rec.status >= 500:
				log.Error("request completed", fields...)
			case rec.status >= 400:
				log.Warn("request completed", fields...)
			default:
				log.Info("request completed", fields...)
			}
		})
	}
}
