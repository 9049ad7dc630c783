package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	loginLocal = "owner_login"
	realmLocal = "owner_realm"
)

// Claims carries the owner identity of a self-service bearer token.
type Claims struct {
	jwt.RegisteredClaims
	Realm string `json:"realm"`
}

// Bearer validates an HS256 bearer token and stores the owner's login and
// realm in the request locals. It is the collaborator that supplies the
// enrolling user's identity; downstream handlers read it via Login and Realm
// instead of trusting anything in the request body.
func Bearer(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		raw := strings.TrimSpace(authz[len("Bearer "):])

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(loginLocal, claims.Subject)
		c.Locals(realmLocal, claims.Realm)
		return c.Next()
	}
}

// Login returns the authenticated owner's login, or "" outside Bearer.
func Login(c *fiber.Ctx) string {
	login, _ := c.Locals(loginLocal).(string)
	return login
}

// Realm returns the authenticated owner's realm, or "" outside Bearer.
func Realm(c *fiber.Ctx) string {
	realm, _ := c.Locals(realmLocal).(string)
	return realm
}

// Sign issues an HS256 bearer token for the given owner. Used by tests and
// by operators provisioning self-service access out of band.
func Sign(login, realm string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Realm: realm,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
