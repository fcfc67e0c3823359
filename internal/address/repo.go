package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
)

// Repository persists addresses and resolves geography lookups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCountryByName(ctx context.Context, name string) (*models.Country, error)
	FirstCountry(ctx context.Context) (*models.Country, error)
	FindRegionByName(ctx context.Context, countryID uuid.UUID, name string) (*models.Region, error)
	FirstRegion(ctx context.Context, countryID uuid.UUID) (*models.Region, error)
	Create(ctx context.Context, addr *models.Address) (*models.Address, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCountryByName(ctx context.Context, name string) (*models.Country, error) {
	var country models.Country
	err := r.db.WithContext(ctx).
		Where("lower(name) LIKE ?", "%"+normalized(name)+"%").
		Order("name asc").
		First(&country).Error
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (r *repository) FirstCountry(ctx context.Context) (*models.Country, error) {
	var country models.Country
	err := r.db.WithContext(ctx).Order("name asc").First(&country).Error
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (r *repository) FindRegionByName(ctx context.Context, countryID uuid.UUID, name string) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).
		Where("country_id = ?", countryID).
		Where("lower(name) LIKE ?", "%"+normalized(name)+"%").
		Order("name asc").
		First(&region).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *repository) FirstRegion(ctx context.Context, countryID uuid.UUID) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).
		Where("country_id = ?", countryID).
		Order("name asc").
		First(&region).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *repository) Create(ctx context.Context, addr *models.Address) (*models.Address, error) {
	if err := r.db.WithContext(ctx).Create(addr).Error; err != nil {
		return nil, err
	}
	return addr, nil
}
