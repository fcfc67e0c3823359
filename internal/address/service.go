package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
)

// Input is one postal address as submitted at checkout. Country and region
// are free-text names matched against the geography tables.
type Input struct {
	Line1      string
	Line2      *string
	City       string
	PostalCode string
	Phone      *string
	Country    string
	Region     string
}

// Recorded is the persisted outcome of recording checkout addresses.
type Recorded struct {
	Billing  *models.Address
	Delivery *models.Address
}

// Service records the billing and delivery addresses for an order.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, billing Input, delivery *Input) (*Recorded, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the address recorder.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Record persists the billing address (always marked default) and, when the
// delivery address differs, a second delivery row. Identical billing and
// delivery inputs produce a single billing row reused for both roles.
func (s *service) Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, billing Input, delivery *Input) (*Recorded, error) {
	repo := s.repo.WithTx(tx)

	billingRow, err := s.record(ctx, repo, userID, billing, enums.AddressKindBilling, true)
	if err != nil {
		return nil, err
	}

	out := &Recorded{Billing: billingRow}
	if delivery == nil || sameAddress(billing, *delivery) {
		return out, nil
	}

	deliveryRow, err := s.record(ctx, repo, userID, *delivery, enums.AddressKindDelivery, false)
	if err != nil {
		return nil, err
	}
	out.Delivery = deliveryRow
	return out, nil
}

func (s *service) record(ctx context.Context, repo Repository, userID uuid.UUID, in Input, kind enums.AddressKind, isDefault bool) (*models.Address, error) {
	if strings.TrimSpace(in.Line1) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s address line is required", kind))
	}

	country, region, err := s.resolveGeography(ctx, repo, in.Country, in.Region)
	if err != nil {
		return nil, err
	}

	addr := &models.Address{
		UserID:     userID,
		Kind:       kind,
		Line1:      strings.TrimSpace(in.Line1),
		Line2:      in.Line2,
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Phone:      in.Phone,
		CountryID:  country.ID,
		RegionID:   region.ID,
		IsDefault:  isDefault,
	}
	created, err := repo.Create(ctx, addr)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address")
	}
	return created, nil
}

// resolveGeography maps free-text country and region names onto seeded rows.
// Unmatched names fall back to the first seeded entry rather than rejecting
// the checkout; the raw text still survives in the order notes if the caller
// keeps it there.
func (s *service) resolveGeography(ctx context.Context, repo Repository, countryName, regionName string) (*models.Country, *models.Region, error) {
	country, err := repo.FindCountryByName(ctx, countryName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "country", countryName), "address.country_fallback")
		}
		country, err = repo.FirstCountry(ctx)
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve country")
	}

	region, err := repo.FindRegionByName(ctx, country.ID, regionName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		region, err = repo.FirstRegion(ctx, country.ID)
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve region")
	}
	return country, region, nil
}

func sameAddress(a, b Input) bool {
	return normalized(a.Line1) == normalized(b.Line1) &&
		normalized(a.City) == normalized(b.City) &&
		normalized(a.PostalCode) == normalized(b.PostalCode) &&
		normalized(a.Country) == normalized(b.Country) &&
		normalized(a.Region) == normalized(b.Region)
}

func normalized(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
