package identity

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

const defaultPassword = "correct-horse-battery"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (interface{}, error)
	SetAccessToken(token string)
	Save(key, value string)
	Unique(s string) string
}

// RegisterSteps registers account step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &identitySteps{tc: tc}

	ctx.Step(`^I register as "([^"]*)"$`, steps.register)
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I am logged in as "([^"]*)"$`, steps.registerAndLogin)
}

type identitySteps struct {
	tc TestContext
}

func (s *identitySteps) email(username string) string {
	return s.tc.Unique(username) + "@example.com"
}

// register saves the new user's id under the username.
func (s *identitySteps) register(ctx context.Context, username string) error {
	err := s.tc.POST("/api/users/register", map[string]interface{}{
		"username": username,
		"email":    s.email(username),
		"password": defaultPassword,
	})
	if err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 201 {
		return nil
	}
	userID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save(username, fmt.Sprint(userID))
	return nil
}

func (s *identitySteps) login(ctx context.Context, username, password string) error {
	if password == "default" {
		password = defaultPassword
	}
	if err := s.tc.POST("/api/users/login", map[string]interface{}{
		"email":    s.email(username),
		"password": password,
	}); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 200 {
		return nil
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(fmt.Sprint(token))
	return nil
}

func (s *identitySteps) registerAndLogin(ctx context.Context, username string) error {
	if err := s.register(ctx, username); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("register %s: status %d: %s", username, status, s.tc.GetLastResponseBody())
	}
	if err := s.login(ctx, username, defaultPassword); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("login %s: status %d: %s", username, status, s.tc.GetLastResponseBody())
	}
	return nil
}
