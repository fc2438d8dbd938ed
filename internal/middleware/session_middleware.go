package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examsafe/examsafe/internal/app/models/dto"
	"github.com/examsafe/examsafe/internal/pkg/apperrors"
	"github.com/examsafe/examsafe/internal/pkg/auth"
)

// sessionContextKey is the gin context key the session is stored under.
const sessionContextKey = "walletSession"

// SessionMiddleware resolves the wallet-session token into an explicit
// session context for downstream handlers.
type SessionMiddleware struct {
	jwtService *auth.JWTService
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(jwtService *auth.JWTService) *SessionMiddleware {
	return &SessionMiddleware{
		jwtService: jwtService,
	}
}

// RequireSession validates the bearer token and injects the session context.
// Requests without a valid session are rejected before any workflow runs.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed")
			errorDetail = errorDetail.WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		sess, err := m.jwtService.SessionFromToken(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Token has expired"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed")
			errorDetail = errorDetail.WithDetails(errorDetails)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// SessionFromContext returns the session injected by RequireSession, if any.
func SessionFromContext(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, ok := v.(*auth.Session)
	if !ok {
		return nil
	}
	return sess
}
