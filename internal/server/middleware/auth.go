package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storehub/backend/internal/security"
	userdomain "storehub/backend/internal/user/domain"
)

const identityKey = "auth.identity"

// TokenVerifier resolves a bearer access token to an identity. A nil
// profile with nil error means the token was rejected; a non-nil error
// means a storage failure.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*userdomain.Profile, error)
}

// Authenticate validates the Bearer access token on every request it guards
// and stores the resolved identity in the gin context. Missing, malformed,
// expired, refresh-class, and session-orphaned tokens all answer 401 with
// no detail on which condition fired.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := security.StripBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		identity, err := verifier.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole gates a route group to identities holding the given role.
// Must run after Authenticate.
func RequireRole(role userdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if identity.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the identity stored by Authenticate, if any.
func CurrentUser(c *gin.Context) (*userdomain.Profile, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*userdomain.Profile)
	return identity, ok
}
