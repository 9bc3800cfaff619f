package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"markline/backend/pkg/jwt"
	"markline/backend/pkg/response"
)

// JWTAuth extracts and verifies the Bearer token, injecting the
// caller's role and work-session triple into the request context.
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "token invalid or expired")
			c.Abort()
			return
		}

		c.Set("role", claims.Role)
		c.Set("session_id", claims.SessionID)
		c.Set("pass_id", claims.PassID)
		c.Set("order_id", claims.OrderID)
		c.Set("display_name", claims.DisplayName)

		c.Next()
	}
}

// RoleAuth requires one of the allowed roles.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		userRole := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "access denied")
		c.Abort()
	}
}
