package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-checkout/config"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	pkgLog "github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

func testCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		PlatformFeePercent: 5.0,
		MaxQuantity:        10,
		ScanEarlyWindow:    time.Hour,
		ScanLateWindow:     30 * time.Minute,
	}
}

func newCheckoutFixture(t *testing.T) (*fakeStore, CheckoutService, *fakePaymentClient) {
	t.Helper()
	store := newFakeStore()
	payCli := &fakePaymentClient{}
	svc := NewCheckoutService(
		&fakeEventRepo{s: store},
		&fakeOrderRepo{s: store},
		&fakeTicketRepo{s: store},
		payCli,
		testCheckoutConfig(),
		pkgLog.InitializeTestZapLogger(),
	)
	return store, svc, payCli
}

func activeEvent(id string, capacity int) *models.Event {
	now := time.Now()
	return &models.Event{
		ID:            id,
		Title:         "Test Show",
		StartsAt:      now.Add(48 * time.Hour),
		Capacity:      capacity,
		PriceCents:    2500,
		Currency:      "usd",
		HostAccountID: "acct_host",
		Status:        models.EventStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func reserveInput(eventID string, qty int) ReserveInput {
	return ReserveInput{
		EventRef:   models.LocalEventRef(eventID),
		Quantity:   qty,
		BuyerID:    "buyer-1",
		BuyerEmail: "buyer@example.com",
	}
}

func TestReserve_Success(t *testing.T) {
	store, svc, payCli := newCheckoutFixture(t)
	store.addEvent(activeEvent("ev-1", 100))

	out, err := svc.Reserve(context.Background(), reserveInput("ev-1", 3))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, out.Order.Status)
	assert.Equal(t, int64(7500), out.Order.AmountCents)
	assert.Equal(t, int64(375), out.Order.FeeSplitCents) // 5% of 7500
	assert.NotEmpty(t, out.Order.PaymentReference)
	assert.NotEmpty(t, out.ClientSecret)
	assert.Equal(t, 3, store.events["ev-1"].TicketsSold)

	require.Len(t, payCli.calls, 1)
	assert.Equal(t, out.Order.PaymentReference, payCli.calls[0].PaymentReference)
	assert.Equal(t, "acct_host", payCli.calls[0].DestinationAccount)
	assert.Equal(t, int64(375), payCli.calls[0].ApplicationFee)
}

func TestReserve_CapacityExceeded(t *testing.T) {
	store, svc, _ := newCheckoutFixture(t)
	ev := activeEvent("ev-1", 5)
	ev.TicketsSold = 4
	store.addEvent(ev)

	_, err := svc.Reserve(context.Background(), reserveInput("ev-1", 2))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// No partial state: the failed attempt reserved nothing.
	assert.Equal(t, 4, store.events["ev-1"].TicketsSold)
	assert.Empty(t, store.orders)
}

func TestReserve_EventNotActive(t *testing.T) {
	store, svc, _ := newCheckoutFixture(t)
	ev := activeEvent("ev-1", 10)
	ev.Status = models.EventStatusPaused
	store.addEvent(ev)

	_, err := svc.Reserve(context.Background(), reserveInput("ev-1", 1))
	assert.ErrorIs(t, err, ErrEventNotActive)
}

func TestReserve_HostNotOnboarded(t *testing.T) {
	store, svc, _ := newCheckoutFixture(t)
	ev := activeEvent("ev-1", 10)
	ev.HostAccountID = ""
	store.addEvent(ev)

	_, err := svc.Reserve(context.Background(), reserveInput("ev-1", 1))
	assert.ErrorIs(t, err, ErrHostNotOnboarded)
	assert.Equal(t, 0, store.events["ev-1"].TicketsSold)
}

func TestReserve_EventNotFound(t *testing.T) {
	_, svc, _ := newCheckoutFixture(t)

	_, err := svc.Reserve(context.Background(), reserveInput("missing", 1))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestReserve_TwoConcurrentBuyersOneSucceeds(t *testing.T) {
	store, svc, _ := newCheckoutFixture(t)
	store.addEvent(activeEvent("ev-1", 5))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Reserve(context.Background(), reserveInput("ev-1", 3))
		}(i)
	}
	wg.Wait()

	var ok, capacity int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrCapacityExceeded):
			capacity++
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, capacity)
	assert.Equal(t, 3, store.events["ev-1"].TicketsSold)
}

func TestReserve_ConcurrentNeverOversells(t *testing.T) {
	const (
		capacity = 17
		buyers   = 50
		qty      = 2
	)

	store, svc, _ := newCheckoutFixture(t)
	store.addEvent(activeEvent("ev-1", capacity))

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Reserve(context.Background(), reserveInput("ev-1", qty))
		}()
	}
	wg.Wait()

	sold := store.events["ev-1"].TicketsSold
	assert.LessOrEqual(t, sold, capacity)

	reserved := 0
	for _, o := range store.orders {
		reserved += o.Quantity
	}
	assert.Equal(t, sold, reserved)
}

func TestReserve_External(t *testing.T) {
	store, svc, payCli := newCheckoutFixture(t)
	now := time.Now()
	store.externalEvents["ext-1"] = &models.ExternalEvent{
		ID:         "ext-1",
		Title:      "Imported Gig",
		StartsAt:   now.Add(72 * time.Hour),
		PriceCents: 1000,
		Currency:   "eur",
		Status:     models.EventStatusActive,
		Source:     "partner",
	}

	out, err := svc.Reserve(context.Background(), ReserveInput{
		EventRef:   models.ExternalEventRef("ext-1"),
		Quantity:   2,
		BuyerID:    "buyer-1",
		BuyerEmail: "buyer@example.com",
	})
	require.NoError(t, err)

	// Platform-account charge, no fee split, no local capacity.
	assert.Equal(t, int64(2000), out.Order.AmountCents)
	assert.Equal(t, int64(0), out.Order.FeeSplitCents)
	require.Len(t, payCli.calls, 1)
	assert.Empty(t, payCli.calls[0].DestinationAccount)
}

func TestGetOrder_Authorization(t *testing.T) {
	store, svc, _ := newCheckoutFixture(t)
	store.addEvent(activeEvent("ev-1", 10))

	out, err := svc.Reserve(context.Background(), reserveInput("ev-1", 1))
	require.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), out.Order.ID, "someone-else", false)
	assert.ErrorIs(t, err, ErrOrderForbidden)

	got, err := svc.GetOrder(context.Background(), out.Order.ID, "buyer-1", false)
	require.NoError(t, err)
	assert.Equal(t, out.Order.ID, got.Order.ID)

	// Host tokens may read any order.
	_, err = svc.GetOrder(context.Background(), out.Order.ID, "host-1", true)
	assert.NoError(t, err)
}

func TestRefundOrder(t *testing.T) {
	store, svc, _ := newCheckoutFixture(t)
	store.addEvent(activeEvent("ev-1", 10))
	oRepo := &fakeOrderRepo{s: store}

	out, err := svc.Reserve(context.Background(), reserveInput("ev-1", 2))
	require.NoError(t, err)

	// Pending orders are not refundable.
	_, err = svc.RefundOrder(context.Background(), out.Order.ID)
	assert.ErrorIs(t, err, ErrOrderNotRefundable)

	res, err := oRepo.Complete(context.Background(), out.Order.PaymentReference)
	require.NoError(t, err)
	require.Len(t, res.Tickets, 2)

	// Mark one ticket used before the refund.
	usedID := res.Tickets[0].ID
	used, err := (&fakeTicketRepo{s: store}).MarkUsed(context.Background(), res.Tickets[0].ScanToken, "scanner", time.Now())
	require.NoError(t, err)
	require.True(t, used)

	o, err := svc.RefundOrder(context.Background(), out.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, o.Status)

	// Valid tickets became refunded; the used one stays used.
	assert.Equal(t, models.TicketStatusUsed, store.tickets[usedID].Status)
	assert.Equal(t, models.TicketStatusRefunded, store.tickets[res.Tickets[1].ID].Status)
}
