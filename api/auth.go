package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/payroll"
)

// Actor headers set by an upstream authenticating proxy. They are only
// trusted when no JWT secret is configured.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// ActorClaims are the access token claims. Subject is the actor ID.
type ActorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignActorToken issues an HS256 access token for a.
func SignActorToken(secret []byte, a payroll.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		Role: a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "payroll-engine",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseActorToken(secret []byte, tokenString string) (payroll.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return payroll.Actor{}, err
	}
	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return payroll.Actor{}, fmt.Errorf("invalid token claims")
	}
	return payroll.Actor{ID: claims.Subject, Role: claims.Role}, nil
}

// ActorMiddleware attaches the caller named by the actor headers to the
// request context.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get(HeaderActorRole)
		if role == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := payroll.WithActor(r.Context(), payroll.Actor{
			ID:   r.Header.Get(HeaderActorID),
			Role: role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// JWTActorMiddleware validates Bearer tokens and attaches their actor to the
// context. Requests without a token pass through anonymously; the financial
// gate rejects them where it matters. A malformed or expired token is a 401.
func JWTActorMiddleware(secret []byte, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format", zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "Invalid authorization header", nil)
				return
			}

			actor, err := parseActorToken(secret, parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(payroll.WithActor(r.Context(), actor)))
		})
	}
}
