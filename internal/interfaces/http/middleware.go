package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

const (
	userContextKey = "user"
	bearerPrefix   = "Bearer "
)

// loggingMiddleware logs one line per request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// metricsMiddleware records request count and latency per route template
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.deps.Metrics.RecordAPIRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// authMiddleware resolves the bearer token to a user and stores it on the context
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || token == "" {
			abort(c, http.StatusUnauthorized, "missing or invalid access token")
			return
		}

		user, err := s.deps.Auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			respondError(c, s.logger, err)
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// requireRole rejects authenticated users without role
func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if user.Role != role {
			abort(c, http.StatusForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}

// currentUser returns the user set by authMiddleware
func currentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*entity.User)
	return user
}

// rateLimitMiddleware limits each authenticated user (or client IP) to rps with burst
func rateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if user := currentUser(c); user != nil {
			key = user.ID
		}

		mu.Lock()
		limiter, ok := limiters[key]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[key] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			abort(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}

// corsMiddleware allows the listed origins; "*" allows any
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := false
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || origins[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
