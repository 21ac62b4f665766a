package dto

import (
	"time"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
)

// LoginRequest payload for the local credential login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the identity shape returned to clients.
type UserResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name,omitempty"`
	Email string      `json:"email"`
	Phone string      `json:"phone,omitempty"`
	Role  domain.Role `json:"role"`
}

// UserResponseFrom maps an identity to the response shape.
func UserResponseFrom(identity domain.Identity) UserResponse {
	return UserResponse{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Phone: identity.Phone,
		Role:  identity.Role,
	}
}

// GateResponse is the access decision returned to the UI shell.
type GateResponse struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}
