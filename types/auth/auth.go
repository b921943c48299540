package auth

import (
	"fmt"
	"strings"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
}

// Validate validates the LoginRequest fields
func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	return nil
}
