package middleware

import (
	"time"

	"copyforge/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the dashboard origins to call the API with bearer tokens.
func CORS(cfg *config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
	}
	return cors.New(c)
}
