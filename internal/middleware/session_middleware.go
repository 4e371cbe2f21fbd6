package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/farellandr/namitix/internal/helpers"
	"github.com/farellandr/namitix/internal/tickets"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims identifies a wallet session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionToken signs an HS256 token for sessionID that expires with
// the session.
func NewSessionToken(secret []byte, sessionID string, expiresAt time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("session secret not configured")
	}
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseSessionToken validates token and returns the session id it carries.
func ParseSessionToken(secret []byte, token string) (string, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.SessionID, nil
}

// SessionAuthMiddleware resolves the bearer session token to a live
// session. It must run after ServicesMiddleware.
func SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := GetServices(c)
		if svc == nil {
			helpers.AbortWithError(c, http.StatusInternalServerError, "services_unavailable", "Services not configured.")
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			helpers.AbortWithError(c, http.StatusUnauthorized, "missing_token", "Authorization header is missing or malformed.")
			return
		}

		sessionID, err := ParseSessionToken(svc.SessionSecret, strings.TrimSpace(token))
		if err != nil {
			svc.Logger.WithContext(c.Request.Context()).WithError(err).Debug("rejected session token")
			helpers.AbortWithError(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired session token.")
			return
		}

		session, exists := svc.Registry.Get(sessionID)
		if !exists {
			helpers.AbortWithError(c, http.StatusUnauthorized, "session_not_found", "Session not found.")
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func GetSession(c *gin.Context) *tickets.Session {
	session, exists := c.Get(sessionKey)
	if !exists {
		return nil
	}
	return session.(*tickets.Session)
}
