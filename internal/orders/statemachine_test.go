package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
)

func TestCanTransitionGraph(t *testing.T) {
	t.Parallel()

	allowed := []struct {
		from, to enums.OrderStatus
	}{
		{enums.OrderStatusPlaced, enums.OrderStatusConfirmed},
		{enums.OrderStatusPlaced, enums.OrderStatusShipped},
		{enums.OrderStatusPlaced, enums.OrderStatusCancelled},
		{enums.OrderStatusConfirmed, enums.OrderStatusProcessing},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled},
		{enums.OrderStatusDelivered, enums.OrderStatusReturned},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct {
		from, to enums.OrderStatus
	}{
		{enums.OrderStatusDelivered, enums.OrderStatusPlaced},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled},
		{enums.OrderStatusShipped, enums.OrderStatusProcessing},
		{enums.OrderStatusCancelled, enums.OrderStatusConfirmed},
		{enums.OrderStatusReturned, enums.OrderStatusPlaced},
		{enums.OrderStatusPlaced, enums.OrderStatusReturned},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	t.Parallel()

	for _, terminal := range []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusReturned} {
		for _, to := range []enums.OrderStatus{
			enums.OrderStatusPlaced,
			enums.OrderStatusConfirmed,
			enums.OrderStatusProcessing,
			enums.OrderStatusShipped,
			enums.OrderStatusDelivered,
		} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestValidateTransitionErrors(t *testing.T) {
	t.Parallel()

	err := ValidateTransition(enums.OrderStatusDelivered, enums.OrderStatusPlaced)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	err = ValidateTransition(enums.OrderStatusPlaced, enums.OrderStatus("teleported"))
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	assert.NoError(t, ValidateTransition(enums.OrderStatusPlaced, enums.OrderStatusConfirmed))
}
