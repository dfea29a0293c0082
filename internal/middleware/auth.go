package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the client key on API requests.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests without one of keys in the X-API-Key header.
// With no keys configured every request passes.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	valid := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			valid = append(valid, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(valid) == 0 {
			c.Next()
			return
		}

		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			abortUnauthorized(c, "missing api key")
			return
		}
		for _, v := range valid {
			if subtle.ConstantTimeCompare([]byte(key), v) == 1 {
				c.Next()
				return
			}
		}
		abortUnauthorized(c, "invalid api key")
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
