package gateway

import (
	"context"
	"testing"
	"time"

	"doorcars-storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opts(orderID string) domain.CheckoutOptions {
	return domain.CheckoutOptions{AttemptID: "a1", Key: "rzp_test", Amount: 295000, Currency: "INR", OrderID: orderID}
}

// startCheckout runs Checkout in the background and returns once the hub is
// waiting on the widget.
func startCheckout(t *testing.T, h *Hub, ctx context.Context, o domain.CheckoutOptions) <-chan outcome {
	t.Helper()
	opened := make(chan struct{})
	ctx = WithOpenNotifier(ctx, func(domain.CheckoutOptions) { close(opened) })
	done := make(chan outcome, 1)
	go func() {
		res, err := h.Checkout(ctx, o)
		done <- outcome{result: res, err: err}
	}()
	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatal("checkout never opened")
	}
	return done
}

func wait(t *testing.T, done <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-done:
		return o
	case <-time.After(time.Second):
		t.Fatal("checkout did not return")
		return outcome{}
	}
}

func TestHub_Complete(t *testing.T) {
	h := NewHub(time.Minute)
	done := startCheckout(t, h, context.Background(), opts("order_1"))

	pending, ok := h.Pending("order_1")
	require.True(t, ok)
	assert.Equal(t, "a1", pending.AttemptID)

	result := domain.PaymentResult{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", GatewaySignature: "sig"}
	require.NoError(t, h.Complete("order_1", result))

	o := wait(t, done)
	require.NoError(t, o.err)
	assert.Equal(t, &result, o.result)

	_, ok = h.Pending("order_1")
	assert.False(t, ok)

	t.Run("Second callback for the same order", func(t *testing.T) {
		assert.ErrorIs(t, h.Complete("order_1", result), domain.ErrOrderConsumed)
	})

	t.Run("Consumed order cannot be reopened", func(t *testing.T) {
		_, err := h.Checkout(context.Background(), opts("order_1"))
		assert.ErrorIs(t, err, domain.ErrOrderConsumed)
	})
}

func TestHub_Dismiss(t *testing.T) {
	h := NewHub(time.Minute)
	done := startCheckout(t, h, context.Background(), opts("order_2"))

	require.NoError(t, h.Dismiss("order_2"))
	o := wait(t, done)
	assert.Nil(t, o.result)
	assert.ErrorIs(t, o.err, domain.ErrPaymentDismissed)
}

func TestHub_Decline(t *testing.T) {
	h := NewHub(time.Minute)
	done := startCheckout(t, h, context.Background(), opts("order_3"))

	require.NoError(t, h.Decline("order_3", "card declined by issuer"))
	o := wait(t, done)
	assert.ErrorIs(t, o.err, domain.ErrPaymentDeclined)
	assert.Contains(t, o.err.Error(), "card declined by issuer")
}

func TestHub_Timeout(t *testing.T) {
	h := NewHub(20 * time.Millisecond)
	done := startCheckout(t, h, context.Background(), opts("order_4"))

	o := wait(t, done)
	assert.ErrorIs(t, o.err, domain.ErrPaymentDismissed)
	assert.ErrorIs(t, h.Complete("order_4", domain.PaymentResult{}), domain.ErrOrderConsumed)
}

func TestHub_ContextCancelled(t *testing.T) {
	h := NewHub(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := startCheckout(t, h, ctx, opts("order_5"))

	cancel()
	o := wait(t, done)
	assert.ErrorIs(t, o.err, context.Canceled)
}

func TestHub_UnknownOrder(t *testing.T) {
	h := NewHub(time.Minute)
	assert.ErrorIs(t, h.Dismiss("never-opened"), domain.ErrUnknownOrder)
}

func TestHub_ForgetConsumedBefore(t *testing.T) {
	h := NewHub(time.Minute)
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return base }

	done := startCheckout(t, h, context.Background(), opts("order_6"))
	require.NoError(t, h.Dismiss("order_6"))
	wait(t, done)

	assert.Equal(t, 0, h.ForgetConsumedBefore(base))
	assert.Equal(t, 1, h.ForgetConsumedBefore(base.Add(time.Second)))
	assert.ErrorIs(t, h.Dismiss("order_6"), domain.ErrUnknownOrder)
}
