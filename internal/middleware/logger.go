package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDKey is the context key handlers read the request ID back from.
const requestIDKey = "request_id"

// RequestID tags every request with an X-Request-ID, minting one when the
// caller did not supply its own. The ID rides the response header and the
// gin context so error logs can reference it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Logger emits one line per request in the same component-prefixed register
// as the rest of the pipeline's logs.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		log.Printf("http: %s %s status=%d took=%s request_id=%s",
			method, path, c.Writer.Status(), time.Since(start), c.GetString(requestIDKey))
	}
}

// Recovery converts panics into 500 responses.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
