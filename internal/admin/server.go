// Package admin exposes the settings form, the manual sync trigger and the run log over HTTP.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	authRealm       = "post_syncer admin"
	defaultUsername = "admin"
)

// Credentials guards the /admin group. Browsers sign in with Username and
// APIKey as the basic auth password; scripts send APIKey as a header.
type Credentials struct {
	Username string
	APIKey   string
}

// NewServer creates the gin engine with all routes configured.
// The /admin group is only mounted when creds.APIKey is set.
func NewServer(handler *Handler, creds Credentials, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(settingsTemplate)

	r.GET("/health", handler.GetHealth)

	if creds.APIKey != "" {
		if creds.Username == "" {
			creds.Username = defaultUsername
		}
		admin := r.Group("/admin")
		admin.Use(authMiddleware(creds))
		{
			admin.GET("/settings", handler.GetSettings)
			admin.POST("/settings", handler.SaveSettings)
			admin.POST("/sync", handler.RunSync)
			admin.GET("/sync/log", handler.GetLog)
		}
		logger.Info("admin endpoints enabled", "username", creds.Username)
	} else {
		logger.Warn("admin endpoints disabled, admin.api_key not set")
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// authMiddleware accepts the key in X-API-Key or as an Authorization bearer token.
// Requests without either fall through to HTTP basic auth so the form works in a browser.
func authMiddleware(creds Credentials) gin.HandlerFunc {
	basic := gin.BasicAuthForRealm(gin.Accounts{creds.Username: creds.APIKey}, authRealm)

	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			basic(c)
			if c.IsAborted() {
				return
			}
			c.Next()
			return
		}

		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(creds.APIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API key",
			})
			return
		}

		c.Next()
	}
}
