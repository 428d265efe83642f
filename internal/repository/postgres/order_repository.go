package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/random"
)

type OrderRepository interface {
	ReserveLocal(ctx context.Context, o *models.Order) error
	CreateExternal(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	GetByPaymentReference(ctx context.Context, ref string) (*models.Order, error)
	Complete(ctx context.Context, ref string) (*CompleteResult, error)
	MarkFailed(ctx context.Context, ref string) (*models.Order, bool, error)
	Refund(ctx context.Context, orderID string) (*models.Order, error)
}

// CompleteResult reports one fulfillment attempt. Duplicate means the
// order was already completed and no tickets were touched.
type CompleteResult struct {
	Order     *models.Order
	Tickets   []*models.Ticket
	Duplicate bool
}

type pgOrderRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewOrderRepository(db *pgxpool.Pool, l logger.Logger) OrderRepository {
	return &pgOrderRepository{
		db: db,
		l:  l,
	}
}

const orderColumns = `id, code, buyer_id, buyer_email, event_id, external_event_id, quantity, amount_cents, fee_split_cents, currency, payment_reference, session_id, status, created_at, updated_at`

// refToColumns maps the EventRef variant onto the two nullable columns.
func refToColumns(ref models.EventRef) (eventID, externalEventID *string) {
	if ref.IsLocal() {
		return &ref.ID, nil
	}
	return nil, &ref.ID
}

func refFromColumns(eventID, externalEventID *string) models.EventRef {
	if eventID != nil {
		return models.LocalEventRef(*eventID)
	}
	if externalEventID != nil {
		return models.ExternalEventRef(*externalEventID)
	}
	return models.EventRef{}
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o              models.Order
		eventID, extID *string
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.BuyerID, &o.BuyerEmail, &eventID, &extID,
		&o.Quantity, &o.AmountCents, &o.FeeSplitCents, &o.Currency,
		&o.PaymentReference, &o.SessionID, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.EventRef = refFromColumns(eventID, extID)
	return &o, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	eventID, extID := refToColumns(o.EventRef)
	_, err := tx.Exec(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.Code, o.BuyerID, o.BuyerEmail, eventID, extID,
		o.Quantity, o.AmountCents, o.FeeSplitCents, o.Currency,
		o.PaymentReference, o.SessionID, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

// ReserveLocal reserves capacity and creates the pending order as one
// atomic unit. The row lock on the event is mandatory: two concurrent
// requests reading the same pre-lock tickets_sold would both pass a
// naive check-then-write and oversell.
func (r *pgOrderRepository) ReserveLocal(ctx context.Context, o *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reserve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		capacity, sold int
		status         models.EventStatus
		hostAccountID  string
	)
	err = tx.QueryRow(ctx,
		`SELECT capacity, tickets_sold, status, host_account_id
		 FROM events WHERE id = $1 FOR UPDATE`,
		o.EventRef.ID,
	).Scan(&capacity, &sold, &status, &hostAccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEventNotFound
		}
		r.l.Errorf(ctx, "pgOrderRepository.ReserveLocal: %v", err)
		return fmt.Errorf("lock event row: %w", err)
	}

	if status != models.EventStatusActive {
		return ErrEventNotActive
	}
	if hostAccountID == "" {
		return ErrHostNotOnboarded
	}
	if sold+o.Quantity > capacity {
		return ErrCapacityExceeded
	}

	if err := insertOrder(ctx, tx, o); err != nil {
		r.l.Errorf(ctx, "pgOrderRepository.ReserveLocal: %v", err)
		return fmt.Errorf("insert order: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET tickets_sold = tickets_sold + $2, updated_at = $3 WHERE id = $1`,
		o.EventRef.ID, o.Quantity, time.Now(),
	)
	if err != nil {
		r.l.Errorf(ctx, "pgOrderRepository.ReserveLocal: %v", err)
		return fmt.Errorf("increment tickets_sold: %w", err)
	}

	return tx.Commit(ctx)
}

// CreateExternal inserts a pending order against an external listing.
// The external catalog owns inventory, so no capacity is touched.
func (r *pgOrderRepository) CreateExternal(ctx context.Context, o *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertOrder(ctx, tx, o); err != nil {
		r.l.Errorf(ctx, "pgOrderRepository.CreateExternal: %v", err)
		return fmt.Errorf("insert order: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgOrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		r.l.Errorf(ctx, "pgOrderRepository.Get: %v", err)
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *pgOrderRepository) GetByPaymentReference(ctx context.Context, ref string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_reference = $1`, ref,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		r.l.Errorf(ctx, "pgOrderRepository.GetByPaymentReference: %v", err)
		return nil, fmt.Errorf("get order by payment reference: %w", err)
	}
	return o, nil
}

// Complete transitions the order to completed and issues its tickets,
// all inside one transaction locked on the order row. Safe to call any
// number of times, concurrently, for the same payment reference: the
// status check under lock suppresses duplicates, and the ticket count
// is a second barrier against a crash between status update and
// issuance in an earlier attempt.
func (r *pgOrderRepository) Complete(ctx context.Context, ref string) (*CompleteResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin fulfillment tx: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_reference = $1 FOR UPDATE`, ref,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		r.l.Errorf(ctx, "pgOrderRepository.Complete: %v", err)
		return nil, fmt.Errorf("lock order row: %w", err)
	}

	if o.Status == models.OrderStatusCompleted {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit duplicate fulfillment: %w", err)
		}
		return &CompleteResult{Order: o, Duplicate: true}, nil
	}

	now := time.Now()
	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		o.ID, models.OrderStatusCompleted, now,
	)
	if err != nil {
		r.l.Errorf(ctx, "pgOrderRepository.Complete: %v", err)
		return nil, fmt.Errorf("complete order: %w", err)
	}
	o.Status = models.OrderStatusCompleted
	o.UpdatedAt = now

	var existing int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM tickets WHERE order_id = $1`, o.ID,
	).Scan(&existing); err != nil {
		r.l.Errorf(ctx, "pgOrderRepository.Complete: %v", err)
		return nil, fmt.Errorf("count tickets: %w", err)
	}

	var tickets []*models.Ticket
	if existing == 0 {
		tickets, err = issueTickets(ctx, tx, o, now)
		if err != nil {
			r.l.Errorf(ctx, "pgOrderRepository.Complete: %v", err)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit fulfillment: %w", err)
	}

	return &CompleteResult{Order: o, Tickets: tickets}, nil
}

func issueTickets(ctx context.Context, tx pgx.Tx, o *models.Order, now time.Time) ([]*models.Ticket, error) {
	eventID, extID := refToColumns(o.EventRef)

	tickets := make([]*models.Ticket, 0, o.Quantity)
	for seq := 1; seq <= o.Quantity; seq++ {
		token, err := random.GenerateToken(16)
		if err != nil {
			return nil, fmt.Errorf("generate scan token: %w", err)
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

		_, err = tx.Exec(ctx,
			`INSERT INTO tickets (id, order_id, event_id, external_event_id, scan_token, sequence_number, status, scanned_at, scanned_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, '', $8, $9)`,
			t.ID, t.OrderID, eventID, extID, t.ScanToken, t.SequenceNumber, t.Status, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert ticket: %w", err)
		}

		tickets = append(tickets, t)
	}
	return tickets, nil
}

// MarkFailed records a failed payment unless the order already
// completed. A late failure notification never downgrades a completed
// order. The bool reports whether a transition actually happened.
func (r *pgOrderRepository) MarkFailed(ctx context.Context, ref string) (*models.Order, bool, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		`UPDATE orders SET status = $2, updated_at = $3
		 WHERE payment_reference = $1 AND status <> $4
		 RETURNING `+orderColumns,
		ref, models.OrderStatusFailed, time.Now(), models.OrderStatusCompleted,
	))
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.l.Errorf(ctx, "pgOrderRepository.MarkFailed: %v", err)
		return nil, false, fmt.Errorf("mark order failed: %w", err)
	}

	// Either the reference is unknown or the order already completed.
	o, err = r.GetByPaymentReference(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	return o, false, nil
}

// Refund transitions a completed order to refunded and refunds its
// still-valid tickets. Used tickets stay used; capacity is not
// released.
func (r *pgOrderRepository) Refund(ctx context.Context, orderID string) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin refund tx: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		r.l.Errorf(ctx, "pgOrderRepository.Refund: %v", err)
		return nil, fmt.Errorf("lock order row: %w", err)
	}

	if o.Status == models.OrderStatusRefunded {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit duplicate refund: %w", err)
		}
		return o, nil
	}
	if o.Status != models.OrderStatusCompleted {
		return nil, ErrOrderNotRefundable
	}

	now := time.Now()
	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		o.ID, models.OrderStatusRefunded, now,
	)
	if err != nil {
		r.l.Errorf(ctx, "pgOrderRepository.Refund: %v", err)
		return nil, fmt.Errorf("refund order: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE tickets SET status = $2, updated_at = $3 WHERE order_id = $1 AND status = $4`,
		o.ID, models.TicketStatusRefunded, now, models.TicketStatusValid,
	)
	if err != nil {
		r.l.Errorf(ctx, "pgOrderRepository.Refund: %v", err)
		return nil, fmt.Errorf("refund tickets: %w", err)
	}

	o.Status = models.OrderStatusRefunded
	o.UpdatedAt = now

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit refund: %w", err)
	}
	return o, nil
}
