package serializers

import (
	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/pkg/utils"
)

// AddressView is the API representation of a postal address.
type AddressView struct {
	AddressLine string `json:"address_line"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
}

// AddressRepresentation maps a to its API field set.
func AddressRepresentation(a *models.Address) AddressView {
	return AddressView{
		AddressLine: a.AddressLine,
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Postcode:    a.Postcode,
		Country:     a.Country,
	}
}

// AddressInput is the body of an address write.
type AddressInput struct {
	AddressLine *string `json:"address_line" validate:"omitempty,max=255"`
	Street      *string `json:"street" validate:"omitempty,max=55"`
	City        *string `json:"city" validate:"omitempty,max=255"`
	State       *string `json:"state" validate:"omitempty,max=255"`
	Postcode    *string `json:"postcode" validate:"omitempty,max=64"`
	Country     *string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
}

// BillingAddress validates billing addresses. In the account view every
// postal field is required; elsewhere all of them are optional.
type BillingAddress struct {
	Account bool
}

// Validate checks in and returns the address to store.
func (s BillingAddress) Validate(in AddressInput) (*models.Address, error) {
	fields := []struct {
		name  string
		value **string
	}{
		{"address_line", &in.AddressLine},
		{"street", &in.Street},
		{"city", &in.City},
		{"state", &in.State},
		{"postcode", &in.Postcode},
		{"country", &in.Country},
	}

	verr := &e.ValidationError{}
	for _, f := range fields {
		*f.value = clone(*f.value)
		trim(*f.value)
		if s.Account {
			requireString(verr, f.name, *f.value)
		}
	}
	checkStruct(verr, in)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	return &models.Address{
		AddressLine: utils.Deref(in.AddressLine, ""),
		Street:      utils.Deref(in.Street, ""),
		City:        utils.Deref(in.City, ""),
		State:       utils.Deref(in.State, ""),
		Postcode:    utils.Deref(in.Postcode, ""),
		Country:     utils.Deref(in.Country, ""),
	}, nil
}
