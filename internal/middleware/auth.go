package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid operator token")

// ParseOperatorToken validates an HMAC-signed token issued by the identity
// provider and extracts the operator's stable id and display name. The
// backend never validates credentials itself; it only trusts tokens signed
// with the shared secret.
func ParseOperatorToken(jwtSecret, tokenString string) (operatorID, name string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errInvalidToken
	}
	operatorID, _ = claims["sub"].(string)
	name, _ = claims["name"].(string)
	if operatorID == "" {
		return "", "", errInvalidToken
	}
	return operatorID, name, nil
}

// OperatorAuth guards console routes. On success the operator id and name are
// stored in locals for handlers.
func OperatorAuth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(401).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		operatorID, name, err := ParseOperatorToken(jwtSecret, tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals("operator_id", operatorID)
		c.Locals("operator_name", name)
		return c.Next()
	}
}
