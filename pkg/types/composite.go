package types

import "time"

// JSONMap is a loose jsonb payload persisted through the gorm json serializer.
type JSONMap map[string]any

// PaymentVerification is the evidence stored on an order once a gateway
// payment has been authenticated.
type PaymentVerification struct {
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	Signature        string    `json:"signature"`
	VerifiedAt       time.Time `json:"verified_at"`
}
