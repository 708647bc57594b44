package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sparhub/sparrow/pkg/auth"
	"github.com/sparhub/sparrow/pkg/metrics"
)

// userContextKey is where authMiddleware stores the resolved user.
const userContextKey = "auth_user"

// requestLogger logs one line per request with method, route, status and
// latency.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}

// metricsMiddleware records request counts and latency per route. The
// route template is used rather than the raw path so plugin names do not
// explode label cardinality.
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// corsMiddleware answers preflight requests and sets CORS headers for
// configured origins. An origin list containing "*" allows everything.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(s.settings.CORSOrigins))
	for _, origin := range s.settings.CORSOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}
	methods := strings.Join(s.settings.CORSMethods, ", ")
	headers := strings.Join(s.settings.CORSHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware requires a valid bearer token and attaches the resolved
// user to the request context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.abortError(c, &auth.InvalidTokenError{Reason: "missing bearer token"})
			return
		}

		user, err := s.auth.Verify(token)
		if err != nil {
			s.abortError(c, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// requireScope gates a route group on one scope.
func (s *Server) requireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			s.abortError(c, &auth.InvalidTokenError{Reason: "no authenticated user"})
			return
		}
		if err := auth.RequireScopes(user, scope); err != nil {
			s.abortError(c, err)
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user, or nil outside authed routes.
func currentUser(c *gin.Context) *auth.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*auth.User)
	return user
}
