package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
)

type ListingRequestSuite struct {
	suite.Suite
}

func TestListingRequestSuite(t *testing.T) {
	suite.Run(t, new(ListingRequestSuite))
}

func (s *ListingRequestSuite) validRequest() *CreateListingRequest {
	return &CreateListingRequest{
		Name:    " Mama's Pizza ",
		Address: "1 Main St",
		Cuisine: "Italian",
		Menu:    []MenuItemRequest{{Name: "Margherita", Price: price(9.5)}},
	}
}

func (s *ListingRequestSuite) fields(err error) map[string]string {
	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeBadRequest, de.Code)
	return de.Fields
}

func (s *ListingRequestSuite) TestCreateValidation() {
	s.Run("valid request passes", func() {
		req := s.validRequest()
		req.Normalize()
		s.NoError(req.Validate())
		s.Equal("Mama's Pizza", req.Name)
	})

	s.Run("name and address required", func() {
		req := &CreateListingRequest{Name: "  "}
		req.Normalize()
		fields := s.fields(req.Validate())
		s.Contains(fields, "name")
		s.Contains(fields, "address")
	})

	s.Run("menu items need a name and a non-negative price", func() {
		req := s.validRequest()
		req.Menu = []MenuItemRequest{{Name: "ok", Price: price(0)}, {Name: "", Price: price(-1)}}
		fields := s.fields(req.Validate())
		s.Contains(fields, "menu[1].name")
		s.Contains(fields, "menu[1].price")
		s.NotContains(fields, "menu[0].price")
	})

	s.Run("menu item without a price key is rejected", func() {
		var req CreateListingRequest
		body := `{"name":"Mama's Pizza","address":"1 Main St","menu":[{"name":"Margherita"}]}`
		s.Require().NoError(json.Unmarshal([]byte(body), &req))
		req.Normalize()
		fields := s.fields(req.Validate())
		s.Equal("price is required", fields["menu[0].price"])
	})
}

func (s *ListingRequestSuite) TestToListingDefaults() {
	owner := id.NewUserID()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := s.validRequest().ToListing(owner, now)

	s.True(l.IsOpen)
	s.Zero(l.AggregateRating)
	s.Equal(owner, l.OwnerID)
	s.Equal(now, l.CreatedAt)
	s.False(l.ID.IsNil())
	s.Equal([]MenuItem{{Name: "Margherita", Price: 9.5}}, l.Menu)
}

func (s *ListingRequestSuite) TestUpdateApply() {
	l := s.validRequest().ToListing(id.NewUserID(), time.Now())
	name := "Papa's Pizza"
	req := &UpdateListingRequest{Name: &name}
	req.Normalize()
	s.Require().NoError(req.Validate())

	later := l.UpdatedAt.Add(time.Minute)
	req.Apply(l, later)
	s.Equal("Papa's Pizza", l.Name)
	s.Equal("1 Main St", l.Address)
	s.Equal(later, l.UpdatedAt)

	blank := ""
	s.Contains(s.fields((&UpdateListingRequest{Address: &blank}).Validate()), "address")

	menu := []MenuItemRequest{{Name: "Calzone"}}
	s.Contains(s.fields((&UpdateListingRequest{Menu: &menu}).Validate()), "menu[0].price")
}

func price(v float64) *float64 { return &v }

func TestListingMatchesIsLiteralAndCaseInsensitive(t *testing.T) {
	l := &Listing{Name: "Mama's Pizza (50% off)", Cuisine: "Italian"}
	cases := map[string]bool{
		"pizza":   true,
		"PIZZA":   true,
		"ital":    true,
		"(50%)":   false,
		"(50%":    true,
		"pi.za":   false,
		".*":      false,
		"mexican": false,
	}
	for q, want := range cases {
		if got := l.Matches(q); got != want {
			t.Errorf("Matches(%q) = %v, want %v", q, got, want)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	first := time.Now()
	l := &Listing{IsOpen: true}
	l.Close(first)
	l.Close(first.Add(time.Hour))
	if l.IsOpen || !l.UpdatedAt.Equal(first) {
		t.Fatalf("unexpected state after double close: open=%v updated=%v", l.IsOpen, l.UpdatedAt)
	}
}
