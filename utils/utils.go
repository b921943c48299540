package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"mora-delivery/models/user"
	"mora-delivery/types"
)

const maxLoggedBodyBytes = 10 * 1024

// BuildToken issues a signed session token carrying the user's identity and
// role.
func BuildToken(u *user.User) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET not configured")
	}

	claims := jwt.MapClaims{
		"sub":      float64(u.ID),
		"username": u.Username,
		"name":     u.LegalName,
		"role":     u.Role,
		"exp":      time.Now().Add(12 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CurrentUserID extracts the authenticated user's id from the request claims.
func CurrentUserID(c *fiber.Ctx) (uint, error) {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("user claims missing")
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, fmt.Errorf("user id missing in token")
	}
	return uint(sub), nil
}

// CurrentUsername extracts the authenticated username, empty if absent.
func CurrentUsername(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return ""
	}
	username, _ := claims["username"].(string)
	return username
}

// CreateSanitizedLogEntry creates a deep-copied, size-capped log entry for the
// async request logger. Large bodies (proof photo uploads) are truncated so a
// single request cannot bloat the log table.
func CreateSanitizedLogEntry(c *fiber.Ctx, userID *uint) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := truncateBody(c.Body())
	responseBody := truncateBody(c.Response().Body())

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		UserID:          userID,
		Method:          method,
		URL:             url,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}

func truncateBody(body []byte) string {
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes]) + "...[truncated]"
	}
	return string(append([]byte(nil), body...))
}
