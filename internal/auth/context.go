package auth

import "github.com/gin-gonic/gin"

const claimsKey = "authClaims"

// GetClaims returns the authenticated caller's claims or nil.
func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// GetCallerID returns the authenticated caller's ID or empty string.
func GetCallerID(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.CallerID
	}
	return ""
}
