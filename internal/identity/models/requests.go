package models

import (
	"net/mail"
	"strings"

	dErrors "reviewhub/pkg/domain-errors"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	DeliveryAddress string `json:"deliveryAddress"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DeliveryAddress = strings.TrimSpace(r.DeliveryAddress)
}

func (r *RegisterRequest) Validate() error {
	fields := map[string]string{}
	if r.Username == "" {
		fields["username"] = "username is required"
	}
	if r.Email == "" {
		fields["email"] = "email is required"
	} else if !validEmail(r.Email) {
		fields["email"] = "email is invalid"
	}
	if len(r.Password) < MinPasswordLength {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return dErrors.NewValidation(fields)
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	fields := map[string]string{}
	if r.Email == "" {
		fields["email"] = "email is required"
	}
	if r.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return dErrors.NewValidation(fields)
	}
	return nil
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Username        *string `json:"username"`
	DeliveryAddress *string `json:"deliveryAddress"`
}

func (r *UpdateProfileRequest) Normalize() {
	if r.Username != nil {
		v := strings.TrimSpace(*r.Username)
		r.Username = &v
	}
	if r.DeliveryAddress != nil {
		v := strings.TrimSpace(*r.DeliveryAddress)
		r.DeliveryAddress = &v
	}
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Username != nil && *r.Username == "" {
		return dErrors.NewValidation(map[string]string{"username": "username cannot be empty"})
	}
	return nil
}

// validEmail accepts a bare address only, not "Name <addr>".
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}
