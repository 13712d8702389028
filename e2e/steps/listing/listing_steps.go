package listing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path string, body interface{}) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (interface{}, error)
	GetResponseList() ([]map[string]interface{}, error)
	Save(key, value string)
	Expand(s string) string
	Unique(s string) string
}

// RegisterSteps registers listing and search step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &listingSteps{tc: tc}

	ctx.Step(`^I create a restaurant "([^"]*)" serving "([^"]*)"$`, steps.createRestaurant)
	ctx.Step(`^I search for "([^"]*)"$`, steps.search)
	ctx.Step(`^I search for the restaurant name in upper case$`, steps.searchUpper)
	ctx.Step(`^the results should include the restaurant$`, steps.resultsInclude)
	ctx.Step(`^the results should not include the restaurant$`, steps.resultsExclude)
	ctx.Step(`^the restaurant should be closed$`, steps.restaurantClosed)
}

type listingSteps struct {
	tc TestContext
}

// createRestaurant makes the name unique per run and saves the id as
// "restaurant" and the name as "restaurantName".
func (s *listingSteps) createRestaurant(ctx context.Context, name, cuisine string) error {
	unique := s.tc.Unique(name)
	if err := s.tc.POST("/api/restaurants", map[string]interface{}{
		"name":    unique,
		"address": "1 Main St",
		"cuisine": cuisine,
	}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("create restaurant: status %d: %s", status, s.tc.GetLastResponseBody())
	}
	restaurantID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("restaurant", fmt.Sprint(restaurantID))
	s.tc.Save("restaurantName", unique)
	return nil
}

func (s *listingSteps) search(ctx context.Context, query string) error {
	return s.tc.GET("/api/search?query=" + url.QueryEscape(s.tc.Expand(query)))
}

func (s *listingSteps) searchUpper(ctx context.Context) error {
	return s.search(ctx, strings.ToUpper(s.tc.Expand("{restaurantName}")))
}

func (s *listingSteps) includes() (bool, error) {
	list, err := s.tc.GetResponseList()
	if err != nil {
		return false, err
	}
	want := s.tc.Expand("{restaurant}")
	for _, item := range list {
		if fmt.Sprint(item["id"]) == want {
			return true, nil
		}
	}
	return false, nil
}

func (s *listingSteps) resultsInclude(ctx context.Context) error {
	ok, err := s.includes()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("restaurant missing from results: %s", s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *listingSteps) resultsExclude(ctx context.Context) error {
	ok, err := s.includes()
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("restaurant unexpectedly in results: %s", s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *listingSteps) restaurantClosed(ctx context.Context) error {
	if err := s.tc.GET(s.tc.Expand("/api/restaurants/{restaurant}")); err != nil {
		return err
	}
	open, err := s.tc.GetResponseField("isOpen")
	if err != nil {
		return err
	}
	if open != false {
		return fmt.Errorf("expected isOpen=false, got %v", open)
	}
	return nil
}
