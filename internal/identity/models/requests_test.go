package models

import (
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "reviewhub/pkg/domain-errors"
)

type RegisterRequestSuite struct {
	suite.Suite
}

func TestRegisterRequestSuite(t *testing.T) {
	suite.Run(t, new(RegisterRequestSuite))
}

func (s *RegisterRequestSuite) validRequest() *RegisterRequest {
	return &RegisterRequest{
		Username: "mario",
		Email:    "Mario@Example.com ",
		Password: "correct-horse",
	}
}

func (s *RegisterRequestSuite) TestNormalize() {
	req := s.validRequest()
	req.Normalize()
	s.Equal("mario@example.com", req.Email)
}

func (s *RegisterRequestSuite) TestValidation() {
	s.Run("valid request passes", func() {
		req := s.validRequest()
		req.Normalize()
		s.NoError(req.Validate())
	})

	s.Run("missing fields are reported together", func() {
		req := &RegisterRequest{Password: "short"}
		err := req.Validate()
		s.Require().Error(err)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeBadRequest, de.Code)
		s.Contains(de.Fields, "username")
		s.Contains(de.Fields, "email")
		s.Contains(de.Fields, "password")
	})

	s.Run("malformed email rejected", func() {
		for _, email := range []string{"not-an-email", "Mario <mario@example.com>", "mario@localhost"} {
			req := s.validRequest()
			req.Email = email
			err := req.Validate()
			s.Require().Error(err, email)
			de, _ := dErrors.As(err)
			s.Contains(de.Fields, "email", email)
		}
	})

	s.Run("password of exactly minimum length accepted", func() {
		req := s.validRequest()
		req.Password = "12345678"
		req.Normalize()
		s.NoError(req.Validate())
	})
}

func TestUpdateProfileRequestRejectsBlankUsername(t *testing.T) {
	blank := "   "
	req := &UpdateProfileRequest{Username: &blank}
	req.Normalize()
	if err := req.Validate(); !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}
