// Package middleware provides authentication, rate limiting, logging and
// tracing middleware for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

const (
	localsUserID   = "userID"
	localsIdentity = "identity"
)

var (
	errMissingSubject = errors.New("missing subject")
	errNotConfigured  = errors.New("auth not configured")
)

// ParseIdentity validates an HMAC-signed token issued by the identity provider
// and returns the caller it describes. Issuer and audience are checked when
// configured.
func ParseIdentity(tokenString string) (models.Identity, error) {
	if cfg == nil {
		return models.Identity{}, errNotConfigured
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return models.Identity{}, err
	}

	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return models.Identity{}, errMissingSubject
	}

	return models.Identity{
		UserID:    sub,
		FirstName: stringClaim(claims, "given_name"),
		LastName:  stringClaim(claims, "family_name"),
		Name:      stringClaim(claims, "name"),
		ImageURL:  stringClaim(claims, "picture"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *fiber.Ctx, id models.Identity) {
	c.Locals(localsUserID, id.UserID)
	c.Locals(localsIdentity, id)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, id.UserID))
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization header required",
		})
	}

	tokenString, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid authorization header format",
		})
	}

	identity, err := ParseIdentity(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	setIdentity(c, identity)
	return c.Next()
}

// OptionalAuth attaches the caller's identity when a valid token is present
// in the Authorization header or the "token" query parameter, and otherwise
// lets the request through anonymously.
func OptionalAuth(c *fiber.Ctx) error {
	tokenString, ok := bearerToken(c)
	if !ok {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		return c.Next()
	}
	if identity, err := ParseIdentity(tokenString); err == nil {
		setIdentity(c, identity)
	}
	return c.Next()
}

// UserID returns the authenticated user ID, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	if uid, ok := c.Locals(localsUserID).(string); ok {
		return uid
	}
	return ""
}

// CurrentIdentity returns the authenticated caller, if any.
func CurrentIdentity(c *fiber.Ctx) (models.Identity, bool) {
	id, ok := c.Locals(localsIdentity).(models.Identity)
	return id, ok
}
