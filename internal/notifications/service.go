package notifications

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
	"github.com/meghshyam-labs/vyapar-backend/pkg/mailer"
	"github.com/meghshyam-labs/vyapar-backend/pkg/metrics"
)

// Template names one of the transactional emails the pipeline sends.
type Template string

const (
	TemplateOrderConfirmation Template = "order_confirmation"
	TemplateStatusUpdate      Template = "status_update"
	TemplateInvoice           Template = "invoice"
)

// ItemLine is one row in an order email.
type ItemLine struct {
	Name      string
	Qty       int
	UnitPrice decimal.Decimal
}

// OrderEmailData carries everything the templates need.
type OrderEmailData struct {
	OrderID       string
	CustomerName  string
	Currency      enums.Currency
	Total         decimal.Decimal
	OrderStatus   enums.OrderStatus
	PaymentStatus enums.PaymentStatus
	Items         []ItemLine
	TrackingID    string
	TrackingURL   string
}

// Dispatcher sends transactional emails. Every caller treats failures as
// non-fatal: a lost email never rolls back or fails the parent operation.
type Dispatcher interface {
	Send(ctx context.Context, tmpl Template, recipient string, data OrderEmailData) error
}

type service struct {
	sender  mailer.Sender
	logg    *logger.Logger
	metrics *metrics.Registry
}

// NewService wires the dispatcher dependencies.
func NewService(sender mailer.Sender, logg *logger.Logger, reg *metrics.Registry) (Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &service{sender: sender, logg: logg, metrics: reg}, nil
}

func (s *service) Send(ctx context.Context, tmpl Template, recipient string, data OrderEmailData) error {
	subject, body, err := render(tmpl, data)
	if err != nil {
		s.recordFailure(ctx, tmpl, err)
		return err
	}
	if err := s.sender.Send(recipient, subject, body); err != nil {
		s.recordFailure(ctx, tmpl, err)
		return err
	}
	return nil
}

func (s *service) recordFailure(ctx context.Context, tmpl Template, err error) {
	if s.metrics != nil {
		s.metrics.NotificationFailures.WithLabelValues(string(tmpl)).Inc()
	}
	if s.logg != nil {
		ctx = s.logg.WithField(ctx, "template", string(tmpl))
		s.logg.Error(ctx, "notification.send_failed", err)
	}
}

func render(tmpl Template, data OrderEmailData) (subject, body string, err error) {
	t, ok := templatesByName[tmpl]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", tmpl)
	}
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", tmpl, err)
	}
	var subj bytes.Buffer
	if err := t.subject.Execute(&subj, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", tmpl, err)
	}
	return subj.String(), buf.String(), nil
}
