package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nft-checkout/backend/internal/auth"
	"github.com/nft-checkout/backend/internal/config"
	"go.uber.org/zap"
)

// OpsAuthMiddleware gates the recovery/diagnostic endpoints. Preferred: a
// Bearer ops token (HS256, cmd/ops-token). Legacy: the static recovery
// secret via ?secret= or X-Recovery-Secret — kept for operational
// compatibility, single shared credential, rotate it accordingly.
func OpsAuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") && cfg.OpsJWTSecret != "" {
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.ParseOpsToken(cfg.OpsJWTSecret, tokenStr)
			if err == nil {
				c.Locals("operator", claims.Operator)
				return c.Next()
			}
			log.Debug("ops token rejected", zap.Error(err))
		}

		secret := c.Query("secret")
		if secret == "" {
			secret = c.Get("X-Recovery-Secret")
		}
		if secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.RecoverySecret)) == 1 {
			return c.Next()
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
}
