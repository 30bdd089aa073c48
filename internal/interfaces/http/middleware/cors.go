package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig controls cross-origin access.  An empty AllowedOrigins disables
// CORS headers entirely.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// AllowCredentials is never combined with a literal "*" origin.
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
	// AllowWildcard enables "*.example.com" subdomain patterns.
	AllowWildcard bool
}

// DefaultCORSConfig allows no origins; the API is read-mostly so only GET,
// POST and OPTIONS are advertised.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         86400,
	}
}

type originMatcher struct {
	allowAll bool
	exact    map[string]bool
	suffixes []string
}

func newOriginMatcher(cfg CORSConfig) originMatcher {
	m := originMatcher{exact: make(map[string]bool, len(cfg.AllowedOrigins))}
	for _, origin := range cfg.AllowedOrigins {
		switch {
		case origin == "*":
			m.allowAll = true
		case cfg.AllowWildcard && strings.HasPrefix(origin, "*."):
			m.suffixes = append(m.suffixes, strings.ToLower(origin[1:]))
		default:
			m.exact[strings.ToLower(origin)] = true
		}
	}
	return m
}

func (m originMatcher) allowed(origin string) bool {
	if m.allowAll {
		return true
	}
	origin = strings.ToLower(origin)
	if m.exact[origin] {
		return true
	}
	for _, s := range m.suffixes {
		if strings.HasSuffix(origin, s) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests with 204 and decorates allowed cross-origin
// responses.  Disallowed origins pass through without headers and the browser
// blocks them.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)
	match := newOriginMatcher(cfg)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !match.allowed(origin) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		h.Add("Vary", "Access-Control-Request-Method")
		h.Add("Vary", "Access-Control-Request-Headers")
		if match.allowAll && !cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		if exposed != "" {
			h.Set("Access-Control-Expose-Headers", exposed)
		}
		c.Next()
	}
}
