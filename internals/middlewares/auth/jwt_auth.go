package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helperAuth "schoolku_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // pakai cookie access_token jika tidak ada Bearer
}

// Claims yang diharapkan dari service login (di luar modul ini).
type Claims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	BranchID string `json:"branch_id,omitempty"`
	PersonID string `json:"person_id,omitempty"`
	jwt.RegisteredClaims
}

func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		// 1) Ambil token: Authorization: Bearer xxx (atau cookie jika diizinkan)
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		// 2) Parse + verifikasi algoritma
		var claims Claims
		tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		// 3) user_id: user_id → sub
		uid := strings.TrimSpace(claims.UserID)
		if uid == "" {
			uid = strings.TrimSpace(claims.Subject)
		}
		if _, err := uuid.Parse(uid); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "user_id tidak valid")
		}

		c.Locals("jwt_claims", &claims)
		c.Locals(helperAuth.LocUserID, uid)
		c.Locals(helperAuth.LocRole, strings.ToLower(strings.TrimSpace(claims.Role)))
		if s := strings.TrimSpace(claims.BranchID); s != "" {
			c.Locals(helperAuth.LocBranchID, s)
		}
		if s := strings.TrimSpace(claims.PersonID); s != "" {
			c.Locals(helperAuth.LocPersonID, s)
		}
		return c.Next()
	}
}
