package api

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/veilswap/veilswap-node/log"
)

// DisabledLogging is a global flag to disable the request logging middleware.
var DisabledLogging = false

// jsonRegex matches common JSON starting patterns
var jsonRegex = regexp.MustCompile(`^\s*[\[{]`)

// shouldSkipLogging checks if the request should be skipped from logging.
func shouldSkipLogging(r *http.Request) bool {
	if DisabledLogging || log.Level() != log.LogLevelDebug {
		return true
	}
	for _, prefix := range LogExcludedPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs request method, path, status and duration, plus a
// bounded prefix of JSON request bodies when debug logging is on.
func loggingMiddleware(maxBodyLog int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkipLogging(r) {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(io.LimitReader(r.Body, int64(maxBodyLog)))
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
			}
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"took", time.Since(start).String(),
			}
			if len(body) > 0 && jsonRegex.Match(body) {
				fields = append(fields, "body", strings.ReplaceAll(string(body), "\"", ""))
			}
			log.Debugw("api request", fields...)
		})
	}
}
