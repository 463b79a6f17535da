package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleGenericUser Role = "generic_user"
	RoleAnonymous   Role = "anonymous"
)

var ErrInvalidToken = errors.New("could not validate credentials")
var ErrAdminRequired = errors.New("admin privileges required")

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier resolves opaque bearer tokens to role claims. The engine only
// consumes the resolved role; issuing credentials lives with the identity
// service, Issue exists for that service and for tests.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Issue(subject string, role Role, ttl time.Duration) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Resolve maps a bearer token to a role. A missing token is anonymous; a
// present but bad token is an error, never a silent downgrade.
func (v *Verifier) Resolve(token string) (Role, error) {
	if token == "" {
		return RoleAnonymous, nil
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return RoleAnonymous, ErrInvalidToken
	}
	if claims.Role != RoleAdmin && claims.Role != RoleGenericUser {
		return RoleAnonymous, ErrInvalidToken
	}
	return claims.Role, nil
}

type ctxKey struct{}

// FromContext returns the role the middleware resolved for this request.
func FromContext(ctx context.Context) Role {
	if role, ok := ctx.Value(ctxKey{}).(Role); ok {
		return role
	}
	return RoleAnonymous
}

// Middleware resolves the Authorization header on every request. Bad tokens
// fail closed with 401; absent tokens pass through as anonymous so read
// endpoints stay public.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := v.Resolve(bearerToken(r))
			if err != nil {
				http.Error(w, `{"error":"could not validate credentials"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards the mutating endpoints.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != RoleAdmin {
			http.Error(w, `{"error":"admin privileges required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	// Websocket clients cannot set headers from a browser; accept a query
	// parameter there.
	return r.URL.Query().Get("token")
}
