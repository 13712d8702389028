package models

import (
	"time"

	id "reviewhub/pkg/domain"
)

// User is a registered identity. PasswordHash never leaves the process.
type User struct {
	ID              id.UserID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	DeliveryAddress string    `json:"deliveryAddress,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	Message string    `json:"message"`
	ID      id.UserID `json:"id"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
