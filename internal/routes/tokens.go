package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/simplepass/simplepass/internal/token"
)

// RegisterTokenRoutes wires the static-pass enrollment, verification, and
// token-administration endpoints. Verification is public (the caller is, by
// definition, not authenticated yet) but rate-limited; everything else needs
// a bearer identity, which supplies the enrolling owner. Idempotency sits
// behind the bearer check so cached responses are only replayed to the owner
// whose request produced them.
func RegisterTokenRoutes(r fiber.Router, h *token.Handler, bearer, verifyLimiter, idempotency fiber.Handler) {
	r.Post("/tokens/verify", verifyLimiter, h.Verify)

	owned := r.Group("/tokens", bearer)
	if idempotency != nil {
		owned.Use(idempotency)
	}
	owned.Post("/enroll", h.Enroll)
	owned.Get("/", h.List)
	owned.Post("/:serial/pin", h.SetPIN)
	owned.Delete("/:serial", h.Delete)
}
