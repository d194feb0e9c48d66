package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxLoggedBody = 2048

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *loggingResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// LogMiddleware logs every request once it is served. Multipart bodies
// (audio uploads) are not logged.
func LogMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			var body string
			if r.Body != nil && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
				data, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
				if err == nil {
					rest := r.Body
					r.Body = struct {
						io.Reader
						io.Closer
					}{io.MultiReader(bytes.NewReader(data), rest), rest}
					if len(data) > maxLoggedBody {
						data = append(data[:maxLoggedBody], "..."...)
					}
					body = string(data)
				}
			}

			lw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lw, r)

			logger.Infof("request id=%s method=%s uri=%s status=%d duration=%s size=%d body=%s outputheaders=%v",
				RequestIDFromContext(r.Context()),
				r.Method,
				r.RequestURI,
				lw.status,
				time.Since(start),
				lw.size,
				body,
				lw.Header(),
			)
		})
	}
}
