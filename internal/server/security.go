package server

import "github.com/gin-gonic/gin"

// SecurityHeadersMiddleware: JSON 상태 API용 보안 헤더를 붙인다.
// 모든 응답은 no-store.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}
