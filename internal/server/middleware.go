package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skillorbit/skillorbit/internal/auth"
	"github.com/skillorbit/skillorbit/internal/models"
)

const (
	bearerPrefix = "Bearer "

	// accessTokenCookie mirrors the key browser clients use for the token
	accessTokenCookie = "accessToken"
)

var (
	ErrMissingCredentials = errors.New("missing authorization header or cookie")
	ErrInvalidAuthFormat  = errors.New("invalid authorization header format")
	ErrEmptyToken         = errors.New("empty token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrRevokedToken       = errors.New("token revoked")
	ErrUserNotFound       = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingCredentials
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// extractToken prefers the Authorization header and falls back to the cookie
func extractToken(c *gin.Context) (token, source string, err error) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, err = extractBearerToken(header)
		return token, "header", err
	}

	if cookie, cerr := c.Cookie(accessTokenCookie); cerr == nil && cookie != "" {
		return cookie, "cookie", nil
	}

	return "", "", ErrMissingCredentials
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.AbortWithStatusJSON(statusCode, envelope{Success: false, Message: message})
}

// JWTAuthMiddleware validates access tokens sent as bearer header or cookie
func JWTAuthMiddleware(db *gorm.DB, signer *auth.Signer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, source, err := extractToken(c)
		if err != nil {
			var message string
			switch err {
			case ErrMissingCredentials:
				message = "User is not authenticated"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		claims, err := signer.ValidateToken(token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, errors.Join(ErrInvalidToken, err), "Invalid or expired token")
			return
		}

		revoked, err := models.IsRevoked(db, claims.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to check token revocation")
			c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Success: false, Message: "Internal server error"})
			return
		}
		if revoked {
			respondWithError(c, log, http.StatusUnauthorized, ErrRevokedToken, "Session has ended, please sign in again")
			return
		}

		var user models.User
		if err := models.FindByID(db, claims.UserID, &user); err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		sessionData := &auth.SessionData{
			UserID:    user.ID,
			UserEmail: user.UserEmail,
			Role:      user.Role,
			TokenID:   claims.ID,
			Source:    source,
		}
		if claims.ExpiresAt != nil {
			sessionData.ExpiresAt = claims.ExpiresAt.Time
		}
		setSession(c, sessionData)

		c.Next()
	}
}
