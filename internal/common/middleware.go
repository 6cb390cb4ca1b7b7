package common

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"maggram/internal/apperr"
)

type contextKey string

const viewerKey contextKey = "viewer_id"

// ViewerID returns the authenticated user id from the request context,
// or 0 when the request is anonymous.
func ViewerID(ctx context.Context) uint64 {
	if id, ok := ctx.Value(viewerKey).(uint64); ok {
		return id
	}
	return 0
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			WriteError(w, apperr.Unauthorized("authorization required"))
			return
		}

		claims, err := ValidToken(token)
		if err != nil {
			WriteError(w, apperr.Unauthorized("invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), viewerKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth resolves a viewer identity when a valid bearer token is
// present and proceeds anonymously otherwise. A malformed or expired
// token is treated as no token.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := ValidToken(token); err == nil {
				ctx := context.WithValue(r.Context(), viewerKey, claims.UserID)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORS adds permissive cross-origin headers for the SPA client.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestLogging logs method, path and duration for every request.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
