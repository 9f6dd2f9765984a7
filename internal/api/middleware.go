package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeySession contextKey = "session"

// sessionRequired rejects requests made without a signed-in session.
func (s *Server) sessionRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.services.Auth.Current(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeySession, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSession is the huma-handler form of sessionRequired.
func (s *Server) requireSession(ctx context.Context) (domain.Session, error) {
	if session, ok := ctx.Value(contextKeySession).(domain.Session); ok {
		return session, nil
	}
	return s.services.Auth.Current(ctx)
}

// requestLogger logs each request at debug, and server errors at warn.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
