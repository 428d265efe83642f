package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	kafka "github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/payment"
	pgRepo "github.com/vogiaan1904/ticketbottle-checkout/internal/repository/postgres"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/random"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/redis"
)

// fakeStore emulates the ledger with a single mutex standing in for
// the per-row locks: every mutating method holds it for the whole
// "transaction", which preserves the atomicity the real repositories
// get from SELECT ... FOR UPDATE.
type fakeStore struct {
	mu             sync.Mutex
	events         map[string]*models.Event
	externalEvents map[string]*models.ExternalEvent
	orders         map[string]*models.Order // by id
	byRef          map[string]string        // payment_reference -> order id
	tickets        map[string]*models.Ticket
	byToken        map[string]string // scan_token -> ticket id
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:         map[string]*models.Event{},
		externalEvents: map[string]*models.ExternalEvent{},
		orders:         map[string]*models.Order{},
		byRef:          map[string]string{},
		tickets:        map[string]*models.Ticket{},
		byToken:        map[string]string{},
	}
}

func (s *fakeStore) addEvent(ev *models.Event) {
	cp := *ev
	s.events[ev.ID] = &cp
}

func (s *fakeStore) addTicket(t *models.Ticket) {
	cp := *t
	s.tickets[t.ID] = &cp
	s.byToken[t.ScanToken] = t.ID
}

func copyOrder(o *models.Order) *models.Order    { cp := *o; return &cp }
func copyTicket(t *models.Ticket) *models.Ticket { cp := *t; return &cp }

// fakeEventRepo

type fakeEventRepo struct{ s *fakeStore }

func (r *fakeEventRepo) Create(ctx context.Context, ev *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.addEvent(ev)
	return nil
}

func (r *fakeEventRepo) Get(ctx context.Context, id string) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.events[id]
	if !ok {
		return nil, pgRepo.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (r *fakeEventRepo) GetExternal(ctx context.Context, id string) (*models.ExternalEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.externalEvents[id]
	if !ok {
		return nil, pgRepo.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

// fakeOrderRepo

type fakeOrderRepo struct{ s *fakeStore }

func (r *fakeOrderRepo) ReserveLocal(ctx context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ev, ok := r.s.events[o.EventRef.ID]
	if !ok {
		return pgRepo.ErrEventNotFound
	}
	if ev.Status != models.EventStatusActive {
		return pgRepo.ErrEventNotActive
	}
	if ev.HostAccountID == "" {
		return pgRepo.ErrHostNotOnboarded
	}
	if ev.TicketsSold+o.Quantity > ev.Capacity {
		return pgRepo.ErrCapacityExceeded
	}

	r.s.orders[o.ID] = copyOrder(o)
	r.s.byRef[o.PaymentReference] = o.ID
	ev.TicketsSold += o.Quantity
	return nil
}

func (r *fakeOrderRepo) CreateExternal(ctx context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[o.ID] = copyOrder(o)
	r.s.byRef[o.PaymentReference] = o.ID
	return nil
}

func (r *fakeOrderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, pgRepo.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r *fakeOrderRepo) GetByPaymentReference(ctx context.Context, ref string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.getByRefLocked(ref)
}

func (r *fakeOrderRepo) getByRefLocked(ref string) (*models.Order, error) {
	id, ok := r.s.byRef[ref]
	if !ok {
		return nil, pgRepo.ErrOrderNotFound
	}
	return copyOrder(r.s.orders[id]), nil
}

func (r *fakeOrderRepo) Complete(ctx context.Context, ref string) (*pgRepo.CompleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.byRef[ref]
	if !ok {
		return nil, pgRepo.ErrOrderNotFound
	}
	o := r.s.orders[id]

	if o.Status == models.OrderStatusCompleted {
		return &pgRepo.CompleteResult{Order: copyOrder(o), Duplicate: true}, nil
	}

	now := time.Now()
	o.Status = models.OrderStatusCompleted
	o.UpdatedAt = now

	existing := 0
	for _, t := range r.s.tickets {
		if t.OrderID == o.ID {
			existing++
		}
	}

	var tickets []*models.Ticket
	if existing == 0 {
		for seq := 1; seq <= o.Quantity; seq++ {
			token, err := random.GenerateToken(16)
			if err != nil {
				return nil, err
			}
			t := &models.Ticket{
				ID:             uuid.New().String(),
				OrderID:        o.ID,
				EventRef:       o.EventRef,
				ScanToken:      token,
				SequenceNumber: seq,
				Status:         models.TicketStatusValid,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			r.s.addTicket(t)
			tickets = append(tickets, copyTicket(t))
		}
	}

	return &pgRepo.CompleteResult{Order: copyOrder(o), Tickets: tickets}, nil
}

func (r *fakeOrderRepo) MarkFailed(ctx context.Context, ref string) (*models.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.byRef[ref]
	if !ok {
		return nil, false, pgRepo.ErrOrderNotFound
	}
	o := r.s.orders[id]
	if o.Status == models.OrderStatusCompleted {
		return copyOrder(o), false, nil
	}
	o.Status = models.OrderStatusFailed
	o.UpdatedAt = time.Now()
	return copyOrder(o), true, nil
}

func (r *fakeOrderRepo) Refund(ctx context.Context, orderID string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, pgRepo.ErrOrderNotFound
	}
	if o.Status == models.OrderStatusRefunded {
		return copyOrder(o), nil
	}
	if o.Status != models.OrderStatusCompleted {
		return nil, pgRepo.ErrOrderNotRefundable
	}

	now := time.Now()
	o.Status = models.OrderStatusRefunded
	o.UpdatedAt = now
	for _, t := range r.s.tickets {
		if t.OrderID == o.ID && t.Status == models.TicketStatusValid {
			t.Status = models.TicketStatusRefunded
			t.UpdatedAt = now
		}
	}
	return copyOrder(o), nil
}

// fakeTicketRepo

type fakeTicketRepo struct{ s *fakeStore }

func (r *fakeTicketRepo) Get(ctx context.Context, id string) (*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, pgRepo.ErrTicketNotFound
	}
	return copyTicket(t), nil
}

func (r *fakeTicketRepo) GetByScanToken(ctx context.Context, token string) (*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.byToken[token]
	if !ok {
		return nil, pgRepo.ErrTicketNotFound
	}
	return copyTicket(r.s.tickets[id]), nil
}

func (r *fakeTicketRepo) ListByOrder(ctx context.Context, orderID string) ([]*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Ticket
	for _, t := range r.s.tickets {
		if t.OrderID == orderID {
			out = append(out, copyTicket(t))
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) MarkUsed(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.byToken[token]
	if !ok {
		return false, nil
	}
	t := r.s.tickets[id]
	if t.Status != models.TicketStatusValid {
		return false, nil
	}
	t.Status = models.TicketStatusUsed
	t.ScannedAt = &at
	t.ScannedBy = scannerID
	t.UpdatedAt = at
	return true, nil
}

func (r *fakeTicketRepo) MarkCancelled(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok || t.Status != models.TicketStatusValid {
		return false, nil
	}
	t.Status = models.TicketStatusCancelled
	t.UpdatedAt = time.Now()
	return true, nil
}

// fakeOTPRepo

type fakeOTPRepo struct {
	mu      sync.Mutex
	records map[string]*models.OTPRecord
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{records: map[string]*models.OTPRecord{}}
}

func (r *fakeOTPRepo) Save(ctx context.Context, identifier string, rec *models.OTPRecord, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[identifier] = &cp
	return nil
}

func (r *fakeOTPRepo) Get(ctx context.Context, identifier string) (*models.OTPRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identifier]
	if !ok {
		return nil, redis.Nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeOTPRepo) Delete(ctx context.Context, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, identifier)
	return nil
}

// fakeProducer records published events for assertions.

type fakeProducer struct {
	mu        sync.Mutex
	completed []kafka.CheckoutCompletedEvent
	failed    []kafka.CheckoutFailedEvent
	issued    []kafka.TicketIssuedEvent
	scanned   []kafka.TicketScannedEvent
	otp       []kafka.OTPRequestedEvent
}

func (p *fakeProducer) PublishCheckoutCompleted(ctx context.Context, event kafka.CheckoutCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, event)
	return nil
}

func (p *fakeProducer) PublishCheckoutFailed(ctx context.Context, event kafka.CheckoutFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, event)
	return nil
}

func (p *fakeProducer) PublishTicketIssued(ctx context.Context, event kafka.TicketIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued = append(p.issued, event)
	return nil
}

func (p *fakeProducer) PublishTicketScanned(ctx context.Context, event kafka.TicketScannedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanned = append(p.scanned, event)
	return nil
}

func (p *fakeProducer) PublishOTPRequested(ctx context.Context, event kafka.OTPRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.otp = append(p.otp, event)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

// fakePaymentClient

type fakePaymentClient struct {
	mu    sync.Mutex
	calls []payment.CreateIntentInput
	err   error
}

func (c *fakePaymentClient) CreateIntent(ctx context.Context, in payment.CreateIntentInput) (*payment.Intent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.calls = append(c.calls, in)
	return &payment.Intent{
		ID:           "pi_" + in.PaymentReference,
		ClientSecret: "secret_" + in.PaymentReference,
		Status:       "requires_payment_method",
	}, nil
}
