package auth

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Authenticator resolves the identity behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, error)
}

// RequireIdentity returns middleware that rejects requests without a valid
// identity by serving unauthorized. Downstream handlers can rely on
// IdentityFromContext returning non-nil.
func RequireIdentity(a Authenticator, unauthorized http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Authenticate(r)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Rejected unauthenticated request")
				unauthorized.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), id)

			logger := zerolog.Ctx(ctx).With().Str("user_id", id.UserID.String()).Logger()
			ctx = logger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
