package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
)

func newTestClient(t *testing.T, secret string) *Client {
	t.Helper()

	client, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: secret,
	}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return client
}

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestNewClientRequiresCredentials(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	_, err := NewClient(context.Background(), config.RazorpayConfig{KeySecret: "s"}, logg)
	require.Error(t, err)

	_, err = NewClient(context.Background(), config.RazorpayConfig{KeyID: "rzp_test_key"}, logg)
	require.Error(t, err)

	_, err = NewClient(context.Background(), config.RazorpayConfig{KeyID: "rzp_test_key", KeySecret: "s"}, nil)
	require.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	client := newTestClient(t, "super-secret")
	valid := signPayload("super-secret", "order_abc", "pay_xyz")

	assert.True(t, client.VerifySignature("order_abc", "pay_xyz", valid))
	assert.False(t, client.VerifySignature("order_abc", "pay_xyz", valid[:len(valid)-1]+"0"))
	assert.False(t, client.VerifySignature("order_other", "pay_xyz", valid))
	assert.False(t, client.VerifySignature("order_abc", "pay_other", valid))
	assert.False(t, client.VerifySignature("", "pay_xyz", valid))
	assert.False(t, client.VerifySignature("order_abc", "", valid))
	assert.False(t, client.VerifySignature("order_abc", "pay_xyz", ""))
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	client := newTestClient(t, "super-secret")
	forged := signPayload("other-secret", "order_abc", "pay_xyz")
	assert.False(t, client.VerifySignature("order_abc", "pay_xyz", forged))
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t, "super-secret")

	for _, amount := range []int64{0, -100} {
		_, err := client.CreateOrder(context.Background(), amount, "INR", "rcpt_1")
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}
