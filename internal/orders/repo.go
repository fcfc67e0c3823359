package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	"github.com/meghshyam-labs/vyapar-backend/pkg/types"
)

// Repository is the persistence surface for orders and their shipping
// details.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	CreateShippingDetail(ctx context.Context, detail *models.ShippingDetail) (*models.ShippingDetail, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
	MarkPaymentCompleted(ctx context.Context, id uuid.UUID, verification types.PaymentVerification) (bool, error)
	UpdateShippingDetail(ctx context.Context, detail *models.ShippingDetail) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateShippingDetail(ctx context.Context, detail *models.ShippingDetail) (*models.ShippingDetail, error) {
	if err := r.db.WithContext(ctx).Create(detail).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ShippingDetail").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("order_status", status).Error
}

func (r *repository) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("gateway_order_id", gatewayOrderID).Error
}

// MarkPaymentCompleted flips payment_status to completed exactly once. The
// guard predicate makes concurrent verifications converge: the second writer
// matches zero rows and is reported as already completed. The order only
// advances to confirmed while still placed; a late callback for an order
// fulfillment has already moved forward must not rewind it.
func (r *repository) MarkPaymentCompleted(ctx context.Context, id uuid.UUID, verification types.PaymentVerification) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where("payment_status <> ?", enums.PaymentStatusCompleted).
		Updates(&models.Order{
			PaymentStatus:       enums.PaymentStatusCompleted,
			PaymentVerification: &verification,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where("order_status = ?", enums.OrderStatusPlaced).
		Update("order_status", enums.OrderStatusConfirmed).Error
	return true, err
}

func (r *repository) UpdateShippingDetail(ctx context.Context, detail *models.ShippingDetail) error {
	return r.db.WithContext(ctx).Save(detail).Error
}
