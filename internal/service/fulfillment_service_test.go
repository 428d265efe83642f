package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	pkgLog "github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

func newFulfillmentFixture(t *testing.T) (*fakeStore, FulfillmentService, *fakeProducer) {
	t.Helper()
	store := newFakeStore()
	prod := &fakeProducer{}
	svc := NewFulfillmentService(&fakeOrderRepo{s: store}, prod, pkgLog.InitializeTestZapLogger())
	return store, svc, prod
}

func pendingOrder(store *fakeStore, ref string, qty int) *models.Order {
	now := time.Now()
	o := &models.Order{
		ID:               "order-" + ref,
		Code:             "c-" + ref,
		BuyerID:          "buyer-1",
		BuyerEmail:       "buyer@example.com",
		EventRef:         models.LocalEventRef("ev-1"),
		Quantity:         qty,
		AmountCents:      int64(qty) * 2500,
		Currency:         "usd",
		PaymentReference: ref,
		SessionID:        "sess-1",
		Status:           models.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	store.orders[o.ID] = o
	store.byRef[ref] = o.ID
	return o
}

func countTickets(store *fakeStore, orderID string) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	n := 0
	for _, t := range store.tickets {
		if t.OrderID == orderID {
			n++
		}
	}
	return n
}

func TestHandlePaymentSucceeded_IssuesTicketsOnce(t *testing.T) {
	store, svc, prod := newFulfillmentFixture(t)
	o := pendingOrder(store, "pay_1", 3)

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), "pay_1", ChargeInfo{AmountCents: 7500, Currency: "usd"}))

	assert.Equal(t, models.OrderStatusCompleted, store.orders[o.ID].Status)
	assert.Equal(t, 3, countTickets(store, o.ID))

	// Tokens are unique and sequence numbers human-readable.
	seen := map[string]bool{}
	for _, tk := range store.tickets {
		assert.Len(t, tk.ScanToken, 32)
		assert.False(t, seen[tk.ScanToken])
		seen[tk.ScanToken] = true
	}

	require.Len(t, prod.completed, 1)
	assert.Equal(t, "sess-1", prod.completed[0].SessionID)
	require.Len(t, prod.issued, 1)
	assert.Len(t, prod.issued[0].Tickets, 3)
}

func TestHandlePaymentSucceeded_DuplicateDeliveries(t *testing.T) {
	for _, deliveries := range []int{1, 2, 100} {
		store, svc, prod := newFulfillmentFixture(t)
		o := pendingOrder(store, "pay_dup", 4)

		for i := 0; i < deliveries; i++ {
			require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), "pay_dup", ChargeInfo{}))
		}

		assert.Equal(t, 4, countTickets(store, o.ID), "deliveries=%d", deliveries)
		assert.Len(t, prod.completed, 1, "deliveries=%d", deliveries)
		assert.Len(t, prod.issued, 1, "deliveries=%d", deliveries)
	}
}

func TestHandlePaymentSucceeded_ConcurrentDeliveries(t *testing.T) {
	store, svc, prod := newFulfillmentFixture(t)
	o := pendingOrder(store, "pay_conc", 5)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.HandlePaymentSucceeded(context.Background(), "pay_conc", ChargeInfo{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, countTickets(store, o.ID))
	assert.Len(t, prod.completed, 1)
}

func TestHandlePaymentSucceeded_UnknownReference(t *testing.T) {
	_, svc, _ := newFulfillmentFixture(t)

	err := svc.HandlePaymentSucceeded(context.Background(), "pay_nope", ChargeInfo{})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestHandlePaymentFailed(t *testing.T) {
	store, svc, prod := newFulfillmentFixture(t)
	o := pendingOrder(store, "pay_f", 1)

	require.NoError(t, svc.HandlePaymentFailed(context.Background(), "pay_f", "card_declined"))
	assert.Equal(t, models.OrderStatusFailed, store.orders[o.ID].Status)
	require.Len(t, prod.failed, 1)
	assert.Equal(t, "card_declined", prod.failed[0].Reason)

	// Retried failure is a no-op, no second event.
	require.NoError(t, svc.HandlePaymentFailed(context.Background(), "pay_f", "card_declined"))
	assert.Len(t, prod.failed, 1)
}

func TestHandlePaymentFailed_NeverDowngradesCompleted(t *testing.T) {
	store, svc, prod := newFulfillmentFixture(t)
	o := pendingOrder(store, "pay_late", 2)

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), "pay_late", ChargeInfo{}))
	require.NoError(t, svc.HandlePaymentFailed(context.Background(), "pay_late", "late notification"))

	assert.Equal(t, models.OrderStatusCompleted, store.orders[o.ID].Status)
	assert.Equal(t, 2, countTickets(store, o.ID))
	assert.Empty(t, prod.failed)
}

func TestHandlePaymentActionRequired_NoStateChange(t *testing.T) {
	store, svc, _ := newFulfillmentFixture(t)
	o := pendingOrder(store, "pay_3ds", 1)

	require.NoError(t, svc.HandlePaymentActionRequired(context.Background(), "pay_3ds"))
	assert.Equal(t, models.OrderStatusPending, store.orders[o.ID].Status)
	assert.Equal(t, 0, countTickets(store, o.ID))
}
