package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-scheduling-api/pkg/response"
)

const cacheHitKey = "cache_hit"

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(response.MetaContextKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records cache hit information for the current response.
func SetCacheHit(c *gin.Context, hit bool) {
	response.SetMeta(c, cacheHitKey, hit)
}
