package auth

import (
	"chatify/domain"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TokenHeader is the header deployed clients send the provider token in.
const TokenHeader = "authtoken"

const identityKey = "identity"

// IdentityMiddleware resolves the request's identity. No token means an
// anonymous identity rather than a hard rejection; handlers that require
// an identity enforce that themselves. A token that fails verification
// is rejected outright.
func IdentityMiddleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader(TokenHeader)
		if tokenString == "" {
			c.Set(identityKey, domain.Identity{})
			c.Next()
			return
		}

		identity, err := verifier.Verify(tokenString)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom extracts the identity the middleware resolved. Returns
// the anonymous identity when the middleware did not run.
func IdentityFrom(c *gin.Context) domain.Identity {
	value, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}
	identity, ok := value.(domain.Identity)
	if !ok {
		return domain.Identity{}
	}
	return identity
}
