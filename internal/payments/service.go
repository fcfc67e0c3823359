package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meghshyam-labs/vyapar-backend/internal/identity"
	"github.com/meghshyam-labs/vyapar-backend/internal/notifications"
	"github.com/meghshyam-labs/vyapar-backend/internal/orders"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
	"github.com/meghshyam-labs/vyapar-backend/pkg/metrics"
	"github.com/meghshyam-labs/vyapar-backend/pkg/types"
)

const (
	outcomeVerified  = "verified"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
)

// Gateway is the payment-provider surface the service needs. Satisfied by
// the razorpay client.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// Intent is what the storefront needs to open the gateway checkout widget.
type Intent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	GatewayOrderID string          `json:"gateway_order_id"`
	AmountPaise    int64           `json:"amount_paise"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}

// VerifyInput is the signed callback payload the gateway posts back through
// the storefront after the customer pays.
type VerifyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// Service owns gateway interaction for orders: intent creation and signed
// verification.
type Service interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID) (*Intent, error)
	Verify(ctx context.Context, orderID uuid.UUID, input VerifyInput) (*models.Order, error)
}

type service struct {
	orderSvc   orders.Service
	repo       orders.Repository
	users      identity.Repository
	gateway    Gateway
	guard      *IdempotencyGuard
	dispatcher notifications.Dispatcher
	metrics    *metrics.Registry
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the payment service.
func NewService(
	orderSvc orders.Service,
	repo orders.Repository,
	users identity.Repository,
	gateway Gateway,
	guard *IdempotencyGuard,
	dispatcher notifications.Dispatcher,
	reg *metrics.Registry,
	logg *logger.Logger,
) (Service, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	return &service{
		orderSvc:   orderSvc,
		repo:       repo,
		users:      users,
		gateway:    gateway,
		guard:      guard,
		dispatcher: dispatcher,
		metrics:    reg,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// CreateIntent registers (or re-reads) the gateway-side order for an online
// payment. Calling it twice returns the same gateway order id.
func (s *service) CreateIntent(ctx context.Context, orderID uuid.UUID) (*Intent, error) {
	order, err := s.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.PaymentMethod.RequiresGateway() {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("%s orders do not use the payment gateway", order.PaymentMethod),
		)
	}
	if order.PaymentStatus.IsCompleted() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already completed")
	}

	amountPaise := order.Total.Mul(decimal.NewFromInt(100)).IntPart()

	if order.GatewayOrderID != nil && *order.GatewayOrderID != "" {
		return s.intentFor(order, *order.GatewayOrderID, amountPaise), nil
	}

	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amountPaise, order.Currency.String(), order.ID.String())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetGatewayOrderID(ctx, order.ID, gatewayOrderID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save gateway order id")
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithField(ctx, "gateway_order_id", gatewayOrderID), "payments.intent_created")
	}
	return s.intentFor(order, gatewayOrderID, amountPaise), nil
}

func (s *service) intentFor(order *models.Order, gatewayOrderID string, amountPaise int64) *Intent {
	return &Intent{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrderID,
		AmountPaise:    amountPaise,
		Amount:         order.Total,
		Currency:       order.Currency.String(),
	}
}

// Verify checks the gateway signature and completes the payment exactly once.
// A replayed callback for an already-completed payment succeeds without side
// effects; a bad signature or mismatched gateway order id is rejected and
// leaves the order untouched.
func (s *service) Verify(ctx context.Context, orderID uuid.UUID, input VerifyInput) (*models.Order, error) {
	input.GatewayOrderID = strings.TrimSpace(input.GatewayOrderID)
	input.GatewayPaymentID = strings.TrimSpace(input.GatewayPaymentID)
	input.Signature = strings.TrimSpace(input.Signature)
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id, and signature are required")
	}

	order, err := s.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.PaymentMethod.RequiresGateway() {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("%s orders do not use the payment gateway", order.PaymentMethod),
		)
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != input.GatewayOrderID {
		s.countOutcome(outcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodePaymentRejected, "gateway order id does not match this order")
	}

	if !s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.countOutcome(outcomeRejected)
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "payments.signature_rejected")
		}
		return nil, pkgerrors.New(pkgerrors.CodePaymentRejected, "payment signature verification failed")
	}

	seen, err := s.guard.CheckAndMark(ctx, input.GatewayPaymentID)
	if err != nil && s.logg != nil {
		// Redis being down must not block a valid payment.
		s.logg.Error(ctx, "payments.idempotency_guard_unavailable", err)
	}
	if seen && order.PaymentStatus.IsCompleted() {
		s.countOutcome(outcomeDuplicate)
		return order, nil
	}

	verification := types.PaymentVerification{
		GatewayOrderID:   input.GatewayOrderID,
		GatewayPaymentID: input.GatewayPaymentID,
		Signature:        input.Signature,
		VerifiedAt:       s.now().UTC(),
	}

	updated, err := s.repo.MarkPaymentCompleted(ctx, order.ID, verification)
	if err != nil {
		if relErr := s.guard.Release(ctx, input.GatewayPaymentID); relErr != nil && s.logg != nil {
			s.logg.Error(ctx, "payments.guard_release_failed", relErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment completion")
	}

	final, err := s.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !updated {
		// Lost the race to another verification; that one sent the email.
		s.countOutcome(outcomeDuplicate)
		return final, nil
	}

	s.countOutcome(outcomeVerified)
	s.notifyConfirmation(ctx, final)
	return final, nil
}

func (s *service) notifyConfirmation(ctx context.Context, order *models.Order) {
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "payments.notify_lookup_failed", err)
		}
		return
	}
	_ = s.dispatcher.Send(ctx, notifications.TemplateOrderConfirmation, user.Email, orders.EmailData(order, user))
}

func (s *service) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.PaymentsVerified.WithLabelValues(outcome).Inc()
	}
}
