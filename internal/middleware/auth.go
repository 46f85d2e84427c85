package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const identityContextKey = "currentIdentity"

// AuthMiddleware validates JWT tokens and loads the authenticated identity into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		identity, err := parseBearer(cfg.JWTSecret, authHeader)
		if err != nil {
			return err
		}

		c.Locals(identityContextKey, identity)
		return c.Next()
	}
}

// OptionalAuth loads the identity when a valid token is present and lets
// anonymous requests through. Guests can check out without an account.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authHeader := c.Get("Authorization"); authHeader != "" {
			if identity, err := parseBearer(cfg.JWTSecret, authHeader); err == nil {
				c.Locals(identityContextKey, identity)
			}
		}
		return c.Next()
	}
}

// AdminOnly rejects authenticated users without the admin role. It must run
// after AuthMiddleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if identity.Role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

func parseBearer(secret, authHeader string) (utils.Identity, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return utils.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}

	identity, err := utils.ParseToken(secret, strings.TrimSpace(parts[1]))
	if err != nil {
		return utils.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	return identity, nil
}

// GetIdentity extracts the authenticated identity from context.
func GetIdentity(c *fiber.Ctx) (utils.Identity, bool) {
	identity, ok := c.Locals(identityContextKey).(utils.Identity)
	return identity, ok
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	identity, ok := GetIdentity(c)
	if !ok {
		return uuid.Nil, false
	}
	return identity.UserID, true
}
