package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the feature files against a live server at
// REVIEWHUB_E2E_URL. Start that server with RATE_LIMIT_DISABLED=true; the
// scenarios register and log in far more often than the default auth limit.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("REVIEWHUB_E2E_URL")
	if baseURL == "" {
		t.Skip("REVIEWHUB_E2E_URL not set")
	}
	tc := NewTestContext(baseURL)

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature tests failed")
	}
}
