package api

import (
	"log/slog"
	"net/http"
	"strconv"

	sharedApplication "github.com/felixgeelhaar/venues/internal/shared/application"
	"github.com/felixgeelhaar/venues/pkg/observability"
	"github.com/google/uuid"
)

// Request headers.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
)

type middleware func(http.Handler) http.Handler

// chain applies middleware so the first one listed runs outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// requestContext installs the correlation and request ids. A caller supplied
// correlation id is kept when it is a UUID, otherwise a fresh one is issued.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID, err := uuid.Parse(r.Header.Get(HeaderCorrelationID))
		if err != nil || correlationID == uuid.Nil {
			correlationID = uuid.New()
		}

		ctx := sharedApplication.WithCorrelationID(r.Context(), correlationID)
		ctx = observability.WithRequestID(ctx, r.Header.Get(HeaderRequestID))

		w.Header().Set(HeaderCorrelationID, correlationID.String())
		w.Header().Set(HeaderRequestID, observability.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// requestLogger logs each request and records request metrics per route pattern.
// It must wrap the mux directly so the matched pattern is visible on r.
func requestLogger(logger *slog.Logger, metrics observability.Metrics) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			timer := observability.StartTimer(metrics)

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			operation := r.Pattern
			if operation == "" {
				operation = "unmatched"
			}

			duration := timer.
				WithTags(observability.T(observability.StatusKey, strconv.Itoa(status))).
				Stop(operation, status >= http.StatusInternalServerError)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", operation,
				observability.StatusKey, status,
				observability.DurationKey, duration.Milliseconds(),
			)
		})
	}
}

// recoverer turns a panic into a 500 ApplicationError.
func recoverer(logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					writeFailure(w, r, logger, panicError{value: v})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
