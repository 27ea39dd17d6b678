package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy defines the CORS headers to emit for matching origins.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSPolicy allows the dashboard verbs for the given origins.
func DefaultCORSPolicy(origins []string) CORSPolicy {
	return CORSPolicy{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		MaxAge:         10 * time.Minute,
	}
}

// SplitOrigins parses a comma separated origin list.
func SplitOrigins(raw string) []string {
	return normalizeList(strings.Split(raw, ","))
}

// WithCORS is a no-op when AllowedOrigins is empty.
func WithCORS(cfg CORSPolicy) Middleware {
	allowedOrigins := normalizeList(cfg.AllowedOrigins)
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	allowedMethods := strings.Join(normalizeList(cfg.AllowedMethods), ", ")
	allowedHeaders := strings.Join(normalizeList(cfg.AllowedHeaders), ", ")
	maxAge := int(cfg.MaxAge.Seconds())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowOrigin, ok := matchOrigin(origin, allowedOrigins, cfg.AllowCredentials)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Add("Vary", "Origin")
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}
			if allowedMethods != "" {
				h.Set("Access-Control-Allow-Methods", allowedMethods)
			}
			if allowedHeaders != "" {
				h.Set("Access-Control-Allow-Headers", allowedHeaders)
			}
			if maxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func matchOrigin(origin string, allowed []string, allowCredentials bool) (string, bool) {
	for _, candidate := range allowed {
		switch {
		case candidate == "*" && allowCredentials:
			return origin, true
		case candidate == "*":
			return "*", true
		case strings.EqualFold(candidate, origin):
			return origin, true
		}
	}
	return "", false
}
