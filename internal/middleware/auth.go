package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/billing-ledger/internal/auth"
	"github.com/josh-kwaku/billing-ledger/internal/handler"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
)

// Auth requires a bearer token and puts the caller's user and tenant into the
// request context. Every repository call downstream is scoped by that tenant,
// and both ids are tagged onto the request's log lines.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, appErr := bearerToken(r)
			if appErr != nil {
				handler.RespondAppError(w, appErr, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{
				UserID:   claims.UserID,
				TenantID: claims.TenantID,
			})
			ctx = logging.With(ctx, "user_id", claims.UserID, "tenant_id", claims.TenantID)
			Annotate(ctx, "user_id", claims.UserID, "tenant_id", claims.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header. The scheme
// name is matched case-insensitively.
func bearerToken(r *http.Request) (string, *handler.AppError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", handler.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", handler.ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", handler.ErrInvalidToken
	}
	return token, nil
}
