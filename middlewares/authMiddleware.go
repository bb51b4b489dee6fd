package middlewares

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/models"
	authUtils "fixmyarea-be/utils"
)

const identityKey = "identity"

// TokenVerifier decodes a session token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (models.Identity, error)
}

// Authenticate verifies the session token and stores the caller's identity
// on the context. It never touches the database.
func Authenticate(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			abort(c, apperrors.Unauthenticated("No authorization token provided"))
			return
		}

		identity, err := tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, authUtils.ErrExpiredToken) {
				abort(c, apperrors.InvalidCredential("Authorization token has expired"))
				return
			}
			abort(c, apperrors.InvalidCredential("Invalid authorization token"))
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// extractToken reads "Bearer <token>" from Authorization, then the legacy
// x-auth-token header. Browsers cannot set headers on websocket upgrades, so
// those may pass the token as a query parameter.
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return strings.TrimSpace(header)
	}
	if token := c.GetHeader("x-auth-token"); token != "" {
		return token
	}
	if websocket.IsWebSocketUpgrade(c.Request) {
		return c.Query("token")
	}
	return ""
}

// IdentityFrom returns the identity stored by Authenticate, or nil.
func IdentityFrom(c *gin.Context) *models.Identity {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := value.(models.Identity)
	if !ok {
		return nil
	}
	return &identity
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, gin.H{"error": err.Message, "code": err.Code})
}
