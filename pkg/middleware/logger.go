package middleware

import (
	"net/http"
	"time"

	"cinema-ticketing/pkg/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// statusRecorder untuk capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger logs one line per request. 5xx responses log at error level and 4xx at warn.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", rw.status),
				zap.Int("bytes", rw.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
			}
			// user_id hanya ada kalau AuthSession sudah jalan di request ini
			if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
				fields = append(fields, zap.String("user_id", userID.String()))
			}

			level := zapcore.InfoLevel
			switch {
			case rw.status >= 500:
				level = zapcore.ErrorLevel
			case rw.status >= 400:
				level = zapcore.WarnLevel
			}
			logger.Log(level, "HTTP request", fields...)
		})
	}
}
