package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Recorder receives the outcome of every request.
type Recorder interface {
	Record(status int, duration time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func Logger(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			elapsed := time.Since(start)

			if rec != nil {
				rec.Record(recorder.status, elapsed)
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"bytes", recorder.bytes,
				"durationMs", elapsed.Milliseconds(),
				"requestId", GetRequestID(r.Context()),
			}
			if user, ok := GetUser(r.Context()); ok {
				attrs = append(attrs, "userId", user.UserID)
			}
			if recorder.status >= http.StatusInternalServerError {
				slog.Error("http request", attrs...)
				return
			}
			slog.Info("http request", attrs...)
		})
	}
}
