// Package middleware resolves the caller's session before gate handlers run.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"witchmart/internal/session"
	"witchmart/pkg/platform/httputil"
	"witchmart/pkg/requestcontext"
)

// SessionHeader carries the signed session token in both directions. A
// header rather than a cookie keeps every browser tab on its own session.
const SessionHeader = "X-Session-Token"

// SessionOpener resumes or starts the session named by a token.
type SessionOpener interface {
	Open(ctx context.Context, token string, device string) (*session.Session, string, error)
}

// Session resumes the caller's session, or starts a new one when the token is
// missing or stale, and hands the fresh token back in the response header.
func Session(opener SessionOpener, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, token, err := opener.Open(ctx, r.Header.Get(SessionHeader), requestcontext.DeviceLabel(ctx))
			if err != nil {
				logger.ErrorContext(ctx, "failed to open session",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			w.Header().Set(SessionHeader, token)
			ctx = requestcontext.WithSessionID(ctx, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
