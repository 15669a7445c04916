package middleware

import (
	"net/http"

	"github.com/TrustArcade/trustgate/internal/config"
	"github.com/TrustArcade/trustgate/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	HeaderGatewayKey = "X-Gateway-Key"
	ContextClientKey = "api_client"
)

func AuthMiddleware(cfg *config.Config, cm *service.ClientManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderGatewayKey)
		if apiKey == "" {
			if cfg != nil && !cfg.Auth.RequireAPIKey {
				if client := cm.DefaultClient(); client != nil {
					c.Set(ContextClientKey, client)
					c.Next()
					return
				}
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		client, ok := cm.GetByApiKey(apiKey)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		c.Set(ContextClientKey, client)
		c.Next()
	}
}
