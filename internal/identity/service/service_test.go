package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"reviewhub/internal/identity/models"
	"reviewhub/internal/identity/password"
	"reviewhub/internal/identity/store"
	jwttoken "reviewhub/internal/jwt_token"
	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
)

type IdentityServiceSuite struct {
	suite.Suite
	ctx     context.Context
	users   *store.InMemoryUserStore
	tokens  *jwttoken.JWTService
	service *Service
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = store.NewInMemory()
	s.tokens = jwttoken.NewJWTService("test-key", "reviewhub", "reviewhub-api", time.Hour)
	s.service = New(s.users, s.tokens,
		WithPasswordHasher(password.NewHasher(bcrypt.MinCost)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *IdentityServiceSuite) register(email string) *models.User {
	user, err := s.service.Register(s.ctx, &models.RegisterRequest{
		Username: "mario",
		Email:    email,
		Password: "correct-horse",
	})
	s.Require().NoError(err)
	return user
}

func (s *IdentityServiceSuite) TestRegister() {
	s.Run("stores a hashed password", func() {
		user := s.register("mario@example.com")
		s.NotEqual("correct-horse", user.PasswordHash)
		s.False(user.ID.IsNil())
	})

	s.Run("duplicate email is a conflict regardless of case", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterRequest{
			Username: "impostor",
			Email:    "MARIO@example.com",
			Password: "correct-horse",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("short password rejected", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterRequest{
			Username: "luigi",
			Email:    "luigi@example.com",
			Password: "short",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("password hash never serialized", func() {
		user := s.register("peach@example.com")
		raw, err := json.Marshal(user)
		s.Require().NoError(err)
		s.NotContains(string(raw), user.PasswordHash)
		s.NotContains(string(raw), "password")
	})
}

func (s *IdentityServiceSuite) TestLogin() {
	user := s.register("mario@example.com")

	s.Run("issues a token bound to the user", func() {
		resp, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "mario@example.com", Password: "correct-horse"})
		s.Require().NoError(err)
		claims, err := s.tokens.ValidateToken(resp.Token)
		s.Require().NoError(err)
		s.Equal(user.ID.String(), claims.UserID)
		s.WithinDuration(time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)
	})

	s.Run("wrong password and unknown email are indistinguishable", func() {
		_, wrongPassword := s.service.Login(s.ctx, &models.LoginRequest{Email: "mario@example.com", Password: "wrong-horse"})
		_, unknownEmail := s.service.Login(s.ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
		s.Require().Error(wrongPassword)
		s.ErrorIs(wrongPassword, dErrors.New(dErrors.CodeBadRequest, "invalid credentials"))
		s.ErrorIs(unknownEmail, dErrors.New(dErrors.CodeBadRequest, "invalid credentials"))
	})
}

func (s *IdentityServiceSuite) TestProfile() {
	user := s.register("mario@example.com")

	s.Run("missing user is not found", func() {
		_, err := s.service.Profile(s.ctx, id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("update changes username and address only", func() {
		name, addr := "super mario", "1 Mushroom Way"
		updated, err := s.service.UpdateProfile(s.ctx, user.ID, &models.UpdateProfileRequest{
			Username:        &name,
			DeliveryAddress: &addr,
		})
		s.Require().NoError(err)
		s.Equal("super mario", updated.Username)
		s.Equal("1 Mushroom Way", updated.DeliveryAddress)
		s.Equal("mario@example.com", updated.Email)

		reloaded, err := s.service.Profile(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal("super mario", reloaded.Username)
	})
}

func (s *IdentityServiceSuite) TestUsernames() {
	mario := s.register("mario@example.com")
	ghost := id.NewUserID()

	names, err := s.service.Usernames(s.ctx, []id.UserID{mario.ID, ghost})
	s.Require().NoError(err)
	s.Equal(map[id.UserID]string{mario.ID: "mario"}, names)
}
