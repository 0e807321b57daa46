package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/folio/folio/internal/handler/dto"
)

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	// AllowedOrigins holds exact origins ("https://me.dev") or subdomain
	// wildcards ("*.me.dev"). Empty denies every cross-origin request.
	AllowedOrigins []string

	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string

	// AllowCredentials must stay false when a wildcard origin is configured.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig returns defaults for the project API with no origins allowed.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader, "Accept", "Accept-Language"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	}
}

// originMatcher answers whether an Origin header value is allowed.
type originMatcher struct {
	exact    map[string]struct{}
	suffixes []string // ".example.com" for "*.example.com"
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.ToLower(strings.TrimSpace(o))
		if strings.HasPrefix(o, "*.") {
			m.suffixes = append(m.suffixes, o[1:])
			continue
		}
		if o != "" {
			m.exact[o] = struct{}{}
		}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	origin = strings.ToLower(origin)
	if _, ok := m.exact[origin]; ok {
		return true
	}

	// Wildcards only match a real subdomain label of the host.
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	for _, suffix := range m.suffixes {
		if label, ok := strings.CutSuffix(host, suffix); ok && label != "" && !strings.HasSuffix(label, ".") {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and decorates responses for allowed origins.
// Requests without an Origin header pass through untouched. Preflights from
// other origins get 403; their simple requests proceed without CORS headers
// and the browser drops the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	matcher := newOriginMatcher(cfg.AllowedOrigins)
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	var maxAge string
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if !matcher.allows(origin) {
				if preflight {
					dto.WriteEnvelope(w, http.StatusForbidden, dto.Fail("Origin not allowed"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}

			if preflight {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if maxAge != "" {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
