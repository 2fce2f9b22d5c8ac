package serializers

import (
	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/pkg/utils"
	"github.com/google/uuid"
)

// CompanyView is the API representation of a company.
type CompanyView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	SubDomain string    `json:"sub_domain"`
	UserLimit int       `json:"user_limit"`
	Country   string    `json:"country"`
}

// CompanyRepresentation maps c to its API field set.
func CompanyRepresentation(c *models.Company) CompanyView {
	return CompanyView{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		SubDomain: c.SubDomain,
		UserLimit: c.UserLimit,
		Country:   c.Country,
	}
}

// CompanyInput is the body of a company create request.
type CompanyInput struct {
	Name      *string `json:"name" validate:"omitempty,max=100"`
	Address   *string `json:"address" validate:"omitempty,max=2000"`
	SubDomain *string `json:"sub_domain" validate:"omitempty,max=30"`
	UserLimit *int    `json:"user_limit" validate:"omitempty,gte=0"`
	Country   *string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
}

// ValidateCompany checks in and returns the company to store.
func ValidateCompany(in CompanyInput) (*models.Company, error) {
	in.Name, in.SubDomain, in.Country = clone(in.Name), clone(in.SubDomain), clone(in.Country)
	trim(in.Name, in.SubDomain, in.Country)

	verr := &e.ValidationError{}
	requireString(verr, "name", in.Name)
	checkStruct(verr, in)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	return &models.Company{
		Name:      *in.Name,
		Address:   utils.Deref(in.Address, ""),
		SubDomain: utils.Deref(in.SubDomain, ""),
		UserLimit: utils.Deref(in.UserLimit, models.DefaultUserLimit),
		Country:   utils.Deref(in.Country, ""),
	}, nil
}
