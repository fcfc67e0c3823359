package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/internal/identity"
	"github.com/meghshyam-labs/vyapar-backend/internal/notifications"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
)

// TrackingInput is the courier payload attached to an order by fulfillment.
type TrackingInput struct {
	Courier     string
	TrackingID  string
	TrackingURL *string
}

// Service owns the post-checkout order lifecycle: reads, status moves, and
// tracking attachment.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Transition(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error)
	AddTracking(ctx context.Context, id uuid.UUID, input TrackingInput) (*models.Order, error)
}

type service struct {
	client     *db.Client
	repo       Repository
	users      identity.Repository
	dispatcher notifications.Dispatcher
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the order lifecycle service.
func NewService(client *db.Client, repo Repository, users identity.Repository, dispatcher notifications.Dispatcher, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	return &service{
		client:     client,
		repo:       repo,
		users:      users,
		dispatcher: dispatcher,
		logg:       logg,
		now:        time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// Transition moves an order through the fulfillment graph and applies the
// shipping side effects for the target state. The status update and any
// shipping stamp commit together; the customer email is sent after commit
// and never fails the operation.
func (s *service) Transition(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(order.OrderStatus, to); err != nil {
		return nil, err
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrderStatus(ctx, order.ID, to); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.applyShippingSideEffects(ctx, repo, order, to)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, updated)
	return updated, nil
}

// AddTracking records courier details. It is a side entry into the
// fulfillment graph: attaching tracking to an undispatched order also
// advances it to shipped, while shipped and delivered orders only get their
// detail refreshed.
func (s *service) AddTracking(ctx context.Context, id uuid.UUID, input TrackingInput) (*models.Order, error) {
	if strings.TrimSpace(input.TrackingID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required")
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus.IsTerminal() {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot attach tracking to a %s order", order.OrderStatus),
		)
	}

	advance := order.OrderStatus != enums.OrderStatusShipped && order.OrderStatus != enums.OrderStatusDelivered

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		detail := order.ShippingDetail
		if detail == nil {
			detail = &models.ShippingDetail{OrderID: order.ID}
		}
		detail.Courier = strings.TrimSpace(input.Courier)
		detail.TrackingID = strings.TrimSpace(input.TrackingID)
		detail.TrackingURL = input.TrackingURL
		if advance {
			detail.Status = enums.ShippingStatusShipped
			now := s.now()
			detail.ShippedAt = &now
		}

		if detail.ID == uuid.Nil {
			if _, err := repo.CreateShippingDetail(ctx, detail); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping detail")
			}
		} else if err := repo.UpdateShippingDetail(ctx, detail); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping detail")
		}

		if advance {
			if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusShipped); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order to shipped")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if advance {
		s.notifyStatus(ctx, updated)
	}
	return updated, nil
}

func (s *service) applyShippingSideEffects(ctx context.Context, repo Repository, order *models.Order, to enums.OrderStatus) error {
	if to != enums.OrderStatusShipped && to != enums.OrderStatusDelivered {
		return nil
	}

	detail := order.ShippingDetail
	if detail == nil {
		detail = &models.ShippingDetail{OrderID: order.ID}
	}

	switch to {
	case enums.OrderStatusShipped:
		detail.Status = enums.ShippingStatusShipped
		if detail.ShippedAt == nil {
			now := s.now()
			detail.ShippedAt = &now
		}
	case enums.OrderStatusDelivered:
		detail.Status = enums.ShippingStatusDelivered
	}

	if detail.ID == uuid.Nil {
		if _, err := repo.CreateShippingDetail(ctx, detail); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping detail")
		}
		return nil
	}
	if err := repo.UpdateShippingDetail(ctx, detail); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping detail")
	}
	return nil
}

func (s *service) notifyStatus(ctx context.Context, order *models.Order) {
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "orders.notify_lookup_failed", err)
		}
		return
	}
	// Best effort; the dispatcher logs and counts its own failures.
	_ = s.dispatcher.Send(ctx, notifications.TemplateStatusUpdate, user.Email, EmailData(order, user))
}

// EmailData projects an order and its owner into the notification payload.
func EmailData(order *models.Order, user *models.User) notifications.OrderEmailData {
	data := notifications.OrderEmailData{
		OrderID:       order.ID.String(),
		CustomerName:  user.Name,
		Currency:      order.Currency,
		Total:         order.Total,
		OrderStatus:   order.OrderStatus,
		PaymentStatus: order.PaymentStatus,
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, notifications.ItemLine{
			Name:      item.ProductName,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}
	if order.ShippingDetail != nil {
		data.TrackingID = order.ShippingDetail.TrackingID
		if order.ShippingDetail.TrackingURL != nil {
			data.TrackingURL = *order.ShippingDetail.TrackingURL
		}
	}
	return data
}
