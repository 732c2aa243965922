package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/smsledger/internal/account"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
)

// GuestHeader carries the device id of an unauthenticated client.
const GuestHeader = "X-Guest-ID"

var errNoSubject = errors.New("token has no subject")

type userKey struct{}

// WithUserID returns a context owned by userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID returns the caller set by Auth, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// Auth resolves the caller. A bearer token must be an HS256 JWT signed with
// secret whose subject becomes the user id. Without a token the guest header
// identifies the caller as guest:<device id>. Anything else is rejected.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r, secret)
			if err != nil {
				logger.FromContext(r.Context()).Debug().Err(err).Msg("unauthenticated request")
				WriteError(w, r, http.StatusUnauthorized, "unauthorized")

				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func authenticate(r *http.Request, secret []byte) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return "", errors.New("authorization header is not a bearer token")
		}

		return subject(strings.TrimSpace(raw), secret)
	}

	if device := strings.TrimSpace(r.Header.Get(GuestHeader)); device != "" {
		return account.GuestID(device), nil
	}

	return "", errors.New("no credentials")
}

func subject(raw string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("bearer tokens are disabled")
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}

	if sub == "" || account.IsGuest(sub) {
		return "", errNoSubject
	}

	return sub, nil
}
