package middleware

import (
	"context"
	"net/http"
	"time"

	"algoarena/internal/platform/logger"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type requestInfoKey struct{}

// requestInfo is filled in by inner middleware so the outer log line can
// report values that only exist on derived request contexts.
type requestInfo struct {
	userID string
}

func noteUserID(ctx context.Context, userID string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.userID = userID
	}
}

// RequestLogger logs one line per request through the zap logger.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		info := &requestInfo{}
		r = r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info))
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_ip", r.RemoteAddr),
		}
		if info.userID != "" {
			fields = append(fields, zap.String("user_id", info.userID))
		}
		switch {
		case status >= 500:
			logger.Error(r.Context(), "http request", fields...)
		case status >= 400:
			logger.Warn(r.Context(), "http request", fields...)
		default:
			logger.Info(r.Context(), "http request", fields...)
		}
	})
}
