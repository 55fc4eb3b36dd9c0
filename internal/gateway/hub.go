// Package gateway is the storefront's side of the hosted payment widget.
//
// The widget runs in the browser. A checkout blocks in Hub.Checkout until the
// browser reports back through Complete, Dismiss or Decline, the gateway
// timeout passes, or the caller's context ends.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
)

type outcome struct {
	result *domain.PaymentResult
	err    error
}

type pendingCheckout struct {
	opts domain.CheckoutOptions
	done chan outcome
}

// Hub tracks checkouts waiting on the widget. Every order id is accepted once.
type Hub struct {
	mu       sync.Mutex
	pending  map[string]*pendingCheckout
	consumed map[string]time.Time
	timeout  time.Duration
	now      func() time.Time
}

func NewHub(timeout time.Duration) *Hub {
	return &Hub{
		pending:  make(map[string]*pendingCheckout),
		consumed: make(map[string]time.Time),
		timeout:  timeout,
		now:      time.Now,
	}
}

type openNotifierKey struct{}

// OpenFunc receives the widget options as soon as a checkout starts waiting.
type OpenFunc func(domain.CheckoutOptions)

// WithOpenNotifier arranges for fn to be called when a checkout started with
// ctx begins waiting on the widget.
func WithOpenNotifier(ctx context.Context, fn OpenFunc) context.Context {
	return context.WithValue(ctx, openNotifierKey{}, fn)
}

// Checkout registers opts and waits for the widget's answer. A dismissal or
// timeout yields domain.ErrPaymentDismissed, a decline wraps
// domain.ErrPaymentDeclined.
func (h *Hub) Checkout(ctx context.Context, opts domain.CheckoutOptions) (*domain.PaymentResult, error) {
	h.mu.Lock()
	if _, used := h.consumed[opts.OrderID]; used {
		h.mu.Unlock()
		return nil, domain.ErrOrderConsumed
	}
	if _, waiting := h.pending[opts.OrderID]; waiting {
		h.mu.Unlock()
		return nil, domain.ErrOrderConsumed
	}
	p := &pendingCheckout{opts: opts, done: make(chan outcome, 1)}
	h.pending[opts.OrderID] = p
	h.mu.Unlock()

	logger.ExternalServiceCall("gateway", "checkout", "order_id", opts.OrderID, "amount", opts.Amount, "currency", opts.Currency)
	if fn, ok := ctx.Value(openNotifierKey{}).(OpenFunc); ok && fn != nil {
		fn(opts)
	}

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	select {
	case o := <-p.done:
		logger.ExternalServiceResult("gateway", "checkout", o.err, "order_id", opts.OrderID)
		return o.result, o.err
	case <-timer.C:
		if !h.settle(opts.OrderID) {
			// the widget answered at the same moment
			o := <-p.done
			return o.result, o.err
		}
		logger.ExternalServiceResult("gateway", "checkout", domain.ErrPaymentDismissed, "order_id", opts.OrderID, "reason", "timeout")
		return nil, domain.ErrPaymentDismissed
	case <-ctx.Done():
		if !h.settle(opts.OrderID) {
			o := <-p.done
			return o.result, o.err
		}
		logger.ExternalServiceResult("gateway", "checkout", ctx.Err(), "order_id", opts.OrderID)
		return nil, ctx.Err()
	}
}

// Complete hands the widget's payment result to the waiting checkout.
func (h *Hub) Complete(orderID string, result domain.PaymentResult) error {
	return h.resolve(orderID, outcome{result: &result})
}

// Dismiss reports that the user closed the widget without paying.
func (h *Hub) Dismiss(orderID string) error {
	return h.resolve(orderID, outcome{err: domain.ErrPaymentDismissed})
}

// Decline reports a payment the gateway refused.
func (h *Hub) Decline(orderID, reason string) error {
	if reason == "" {
		return h.resolve(orderID, outcome{err: domain.ErrPaymentDeclined})
	}
	return h.resolve(orderID, outcome{err: fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, reason)})
}

// Pending returns the widget options of a checkout still waiting on orderID.
func (h *Hub) Pending(orderID string) (domain.CheckoutOptions, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pending[orderID]
	if !ok {
		return domain.CheckoutOptions{}, false
	}
	return p.opts, true
}

// ForgetConsumedBefore drops consumed order ids recorded before t and
// returns how many were dropped.
func (h *Hub) ForgetConsumedBefore(t time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for id, at := range h.consumed {
		if at.Before(t) {
			delete(h.consumed, id)
			n++
		}
	}
	return n
}

func (h *Hub) resolve(orderID string, o outcome) error {
	h.mu.Lock()
	p, ok := h.pending[orderID]
	if !ok {
		_, used := h.consumed[orderID]
		h.mu.Unlock()
		if used {
			return domain.ErrOrderConsumed
		}
		return domain.ErrUnknownOrder
	}
	delete(h.pending, orderID)
	h.consumed[orderID] = h.now()
	h.mu.Unlock()

	p.done <- o
	return nil
}

// settle retires an order the waiting side gave up on. It returns false when
// the order was already resolved.
func (h *Hub) settle(orderID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.pending[orderID]; !ok {
		return false
	}
	delete(h.pending, orderID)
	h.consumed[orderID] = h.now()
	return true
}
