package middleware

import "github.com/gin-gonic/gin"

const visitorKey = "visitor"

// VisitorHasher turns a client IP into a stable pseudonymous identifier.
type VisitorHasher interface {
	Hash(ip string) string
}

// Visitor stores the hashed client IP under "visitor" in the Gin context.
// The raw IP is not kept anywhere downstream of this middleware.
func Visitor(h VisitorHasher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(visitorKey, h.Hash(c.ClientIP()))
		c.Next()
	}
}

// VisitorFrom returns the visitor hash set by Visitor, or "".
func VisitorFrom(c *gin.Context) string {
	v, _ := c.Get(visitorKey)
	return asString(v)
}
