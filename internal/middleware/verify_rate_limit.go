package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const verifyWindowSeconds = 60

// incrWithExpire bumps the attempt counter and attaches its TTL in one
// script, so a counter can never be left behind without an expiry.
var incrWithExpire = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// VerifyRateLimit caps authentication attempts per token serial (falling
// back to client IP) using Redis if available. The static-pass credential
// itself keeps no retry counter; throttling brute-force PIN guessing is this
// cross-cutting layer's job.
func VerifyRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 10
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			Serial string `json:"serial"`
		}
		_ = c.BodyParser(&req)
		serial := strings.TrimSpace(req.Serial)
		if serial == "" {
			serial = c.IP()
		}
		key := "rl:verify:" + serial
		cnt, err := incrWithExpire.Run(c.UserContext(), cache, []string{key}, verifyWindowSeconds).Int64()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many verification attempts, try again later")
		}
		return c.Next()
	}
}
