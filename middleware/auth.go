package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserIDKey       contextKey = "user_id"
	BearerTokenKey  contextKey = "bearer_token"
	TokenExpiredKey contextKey = "token_expired"
)

type AuthConfig struct {
	CookieName string
	// Secret enables signature verification. Without it the token is only
	// inspected for expiry and the shop API stays the authority.
	Secret string
	Secure bool
}

// Auth picks the session token from the Authorization header or the session
// cookie. Expired or forged tokens are dropped and the cookie cleared, so the
// rest of the chain sees an anonymous visitor.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := extractToken(r, cfg.CookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := inspectToken(token, cfg.Secret, time.Now())
			if err != nil {
				ctx := r.Context()
				if errors.Is(err, jwt.ErrTokenExpired) {
					ctx = context.WithValue(ctx, TokenExpiredKey, true)
				}
				if fromCookie {
					ClearSessionCookie(w, cfg.CookieName, cfg.Secure)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := context.WithValue(r.Context(), BearerTokenKey, token)
			if subject != "" {
				ctx = context.WithValue(ctx, UserIDKey, subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request, cookieName string) (token string, fromCookie bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1]), false
		}
	}
	if cookieName == "" {
		return "", false
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// inspectToken returns the subject of a JWT. Opaque (non-JWT) tokens pass
// through untouched when no secret is configured.
func inspectToken(token, secret string, now time.Time) (string, error) {
	claims := jwt.MapClaims{}

	if secret != "" {
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithTimeFunc(func() time.Time { return now }))
		if err != nil {
			return "", err
		}
		return subjectOf(claims), nil
	}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", nil
	}
	exp, err := claims.GetExpirationTime()
	if err == nil && exp != nil && !now.Before(exp.Time) {
		return "", jwt.ErrTokenExpired
	}
	return subjectOf(claims), nil
}

func subjectOf(claims jwt.MapClaims) string {
	for _, k := range []string{"sub", "id", "userId", "uid"} {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func SetSessionCookie(w http.ResponseWriter, name, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func GetBearerToken(ctx context.Context) string {
	token, _ := ctx.Value(BearerTokenKey).(string)
	return token
}

func IsTokenExpired(ctx context.Context) bool {
	expired, _ := ctx.Value(TokenExpiredKey).(bool)
	return expired
}
