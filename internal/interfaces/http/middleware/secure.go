package middleware

import "github.com/gin-gonic/gin"

const (
	apiCSP            = "default-src 'none'; frame-ancestors 'none'"
	permissionsPolicy = "camera=(), geolocation=(), microphone=(), payment=(), usb=()"
	hstsValue         = "max-age=31536000; includeSubDomains"
)

// Secure sets the response security headers. The API serves JSON and files,
// so the content security policy denies everything.
func Secure(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", permissionsPolicy)
		if c.FullPath() != "/swagger/*any" {
			h.Set("Content-Security-Policy", apiCSP)
		}
		if hsts {
			h.Set("Strict-Transport-Security", hstsValue)
		}
		c.Next()
	}
}
