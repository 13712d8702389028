package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
)

// CreateListingRequest carries the client-settable listing fields. Rating,
// owner and open state are assigned server-side.
type CreateListingRequest struct {
	Name           string            `json:"name"`
	Address        string            `json:"address"`
	Cuisine        string            `json:"cuisine"`
	OperatingHours string            `json:"operatingHours"`
	ContactDetails string            `json:"contactDetails"`
	Menu           []MenuItemRequest `json:"menu"`
}

// MenuItemRequest is a menu entry as sent by a client. Price is a pointer so
// a missing price can be told apart from a free item.
type MenuItemRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

func (r *CreateListingRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.Cuisine = strings.TrimSpace(r.Cuisine)
	r.OperatingHours = strings.TrimSpace(r.OperatingHours)
	r.ContactDetails = strings.TrimSpace(r.ContactDetails)
	normalizeMenu(r.Menu)
}

func (r *CreateListingRequest) Validate() error {
	fields := map[string]string{}
	if r.Name == "" {
		fields["name"] = "name is required"
	}
	if r.Address == "" {
		fields["address"] = "address is required"
	}
	validateMenu(r.Menu, fields)
	if len(fields) > 0 {
		return dErrors.NewValidation(fields)
	}
	return nil
}

// ToListing builds a new open listing owned by ownerID.
func (r *CreateListingRequest) ToListing(ownerID id.UserID, now time.Time) *Listing {
	return &Listing{
		ID:             id.NewListingID(),
		OwnerID:        ownerID,
		Name:           r.Name,
		Address:        r.Address,
		Cuisine:        r.Cuisine,
		OperatingHours: r.OperatingHours,
		ContactDetails: r.ContactDetails,
		Menu:           toMenu(r.Menu),
		IsOpen:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UpdateListingRequest is a partial update; nil fields are left unchanged.
type UpdateListingRequest struct {
	Name           *string            `json:"name"`
	Address        *string            `json:"address"`
	Cuisine        *string            `json:"cuisine"`
	OperatingHours *string            `json:"operatingHours"`
	ContactDetails *string            `json:"contactDetails"`
	Menu           *[]MenuItemRequest `json:"menu"`
	IsOpen         *bool              `json:"isOpen"`
}

func (r *UpdateListingRequest) Normalize() {
	for _, f := range []*string{r.Name, r.Address, r.Cuisine, r.OperatingHours, r.ContactDetails} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if r.Menu != nil {
		normalizeMenu(*r.Menu)
	}
}

func (r *UpdateListingRequest) Validate() error {
	fields := map[string]string{}
	if r.Name != nil && *r.Name == "" {
		fields["name"] = "name cannot be empty"
	}
	if r.Address != nil && *r.Address == "" {
		fields["address"] = "address cannot be empty"
	}
	if r.Menu != nil {
		validateMenu(*r.Menu, fields)
	}
	if len(fields) > 0 {
		return dErrors.NewValidation(fields)
	}
	return nil
}

// Apply copies the present fields onto l.
func (r *UpdateListingRequest) Apply(l *Listing, now time.Time) {
	if r.Name != nil {
		l.Name = *r.Name
	}
	if r.Address != nil {
		l.Address = *r.Address
	}
	if r.Cuisine != nil {
		l.Cuisine = *r.Cuisine
	}
	if r.OperatingHours != nil {
		l.OperatingHours = *r.OperatingHours
	}
	if r.ContactDetails != nil {
		l.ContactDetails = *r.ContactDetails
	}
	if r.Menu != nil {
		l.Menu = toMenu(*r.Menu)
	}
	if r.IsOpen != nil {
		l.IsOpen = *r.IsOpen
	}
	l.UpdatedAt = now
}

// toMenu expects a validated request; every price is present.
func toMenu(items []MenuItemRequest) []MenuItem {
	menu := make([]MenuItem, 0, len(items))
	for _, item := range items {
		m := MenuItem{Name: item.Name, Description: item.Description}
		if item.Price != nil {
			m.Price = *item.Price
		}
		menu = append(menu, m)
	}
	return menu
}

func normalizeMenu(menu []MenuItemRequest) {
	for i := range menu {
		menu[i].Name = strings.TrimSpace(menu[i].Name)
		menu[i].Description = strings.TrimSpace(menu[i].Description)
	}
}

func validateMenu(menu []MenuItemRequest, fields map[string]string) {
	for i, item := range menu {
		if item.Name == "" {
			fields[fmt.Sprintf("menu[%d].name", i)] = "name is required"
		}
		switch price := item.Price; {
		case price == nil:
			fields[fmt.Sprintf("menu[%d].price", i)] = "price is required"
		case *price < 0 || math.IsNaN(*price) || math.IsInf(*price, 0):
			fields[fmt.Sprintf("menu[%d].price", i)] = "price must be a non-negative number"
		}
	}
}
