package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	razorpaysdk "github.com/razorpay/razorpay-go"

	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

// Client wraps the Razorpay SDK with centralized auth, timeouts, and error
// mapping. Signature verification never leaves this package so the shared
// secret handling stays in one place.
type Client struct {
	sdk       *razorpaysdk.Client
	keySecret string
	timeout   time.Duration
	logger    *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		sdk:       razorpaysdk.NewClient(keyID, keySecret),
		keySecret: keySecret,
		timeout:   timeout,
		logger:    logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// CreateOrder registers a gateway-side order for the given amount in minor
// units (paise) and returns its id. The amount must be positive.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	if amountPaise <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "gateway amount must be positive")
	}

	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}

	type orderResult struct {
		body map[string]interface{}
		err  error
	}

	// The SDK has no context support; bound the call so a hung gateway
	// leaves the caller free to report "pending, retryable".
	resultCh := make(chan orderResult, 1)
	go func() {
		body, err := c.sdk.Order.Create(data, nil)
		resultCh <- orderResult{body: body, err: err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "gateway order creation cancelled")
	case <-timer.C:
		return "", pkgerrors.New(pkgerrors.CodeDependency, "gateway order creation timed out")
	case res := <-resultCh:
		if res.err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, res.err, "create gateway order")
		}
		id, ok := res.body["id"].(string)
		if !ok || id == "" {
			return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway returned no order id for receipt %s", receipt))
		}
		return id, nil
	}
}

// VerifySignature reports whether signature is a valid HMAC-SHA256 of
// "<gatewayOrderID>|<gatewayPaymentID>" under the key secret.
func (c *Client) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// KeySecret returns the configured shared secret.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}
