package review

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"
)

// The rating may be recomputed asynchronously when events go through Kafka.
const convergeTimeout = 10 * time.Second

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path string, body interface{}) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (interface{}, error)
	GetResponseList() ([]map[string]interface{}, error)
	Expand(s string) string
}

// RegisterSteps registers review and rating step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &reviewSteps{tc: tc}

	ctx.Step(`^I review the restaurant with rating (\d+)$`, steps.reviewWithRating)
	ctx.Step(`^the restaurant should have aggregate rating ([0-9.]+)$`, steps.aggregateRatingShouldBe)
	ctx.Step(`^the restaurant reviews should be authored by "([^"]*)"$`, steps.reviewsAuthoredBy)
}

type reviewSteps struct {
	tc TestContext
}

func (s *reviewSteps) reviewWithRating(ctx context.Context, rating int) error {
	return s.tc.POST(s.tc.Expand("/api/reviews/{restaurant}"), map[string]interface{}{
		"rating":  rating,
		"comment": "e2e review",
	})
}

func (s *reviewSteps) aggregateRatingShouldBe(ctx context.Context, want string) error {
	expected, err := strconv.ParseFloat(want, 64)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(convergeTimeout)
	for {
		if err := s.tc.GET(s.tc.Expand("/api/restaurants/{restaurant}")); err != nil {
			return err
		}
		got, err := s.tc.GetResponseField("aggregateRating")
		if err != nil {
			return err
		}
		if got == expected {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("expected aggregateRating %v, got %v", expected, got)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// reviewsAuthoredBy checks every review belongs to the saved user id.
func (s *reviewSteps) reviewsAuthoredBy(ctx context.Context, username string) error {
	if err := s.tc.GET(s.tc.Expand("/api/reviews/{restaurant}")); err != nil {
		return err
	}
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no reviews returned")
	}
	want := s.tc.Expand("{" + username + "}")
	for _, r := range list {
		if fmt.Sprint(r["authorId"]) != want {
			return fmt.Errorf("review authored by %v, want %s", r["authorId"], want)
		}
		if fmt.Sprint(r["authorUsername"]) != username {
			return fmt.Errorf("review author name %v, want %s", r["authorUsername"], username)
		}
	}
	return nil
}
