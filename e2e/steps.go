package e2e

import (
	"github.com/cucumber/godog"

	"reviewhub/e2e/steps/common"
	"reviewhub/e2e/steps/identity"
	"reviewhub/e2e/steps/listing"
	"reviewhub/e2e/steps/review"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	identity.RegisterSteps(ctx, tc)
	listing.RegisterSteps(ctx, tc)
	review.RegisterSteps(ctx, tc)
}
