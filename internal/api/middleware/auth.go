package middleware

import (
	"context"
	"errors"
	"net/http"

	"algoarena/internal/common"
	"algoarena/internal/common/contextkey"
	"algoarena/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

// Authenticator rejects requests without a verified token carrying a user_id
// claim. It expects jwtauth.Verifier earlier in the chain.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			msg := "Authorization token required"
			if err != nil && !errors.Is(err, jwtauth.ErrNoTokenFound) {
				msg = "Invalid token: " + err.Error()
			}
			common.RespondWithError(w, http.StatusUnauthorized, msg)
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		noteUserID(r.Context(), userID)
		ctx := context.WithValue(r.Context(), contextkey.UserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextkey.UserID).(string)
	return userID, ok && userID != ""
}
