package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

type TicketRepository interface {
	Get(ctx context.Context, id string) (*models.Ticket, error)
	GetByScanToken(ctx context.Context, token string) (*models.Ticket, error)
	ListByOrder(ctx context.Context, orderID string) ([]*models.Ticket, error)
	MarkUsed(ctx context.Context, token, scannerID string, at time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id string) (bool, error)
}

type pgTicketRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewTicketRepository(db *pgxpool.Pool, l logger.Logger) TicketRepository {
	return &pgTicketRepository{
		db: db,
		l:  l,
	}
}

const ticketColumns = `id, order_id, event_id, external_event_id, scan_token, sequence_number, status, scanned_at, scanned_by, created_at, updated_at`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var (
		t              models.Ticket
		eventID, extID *string
	)
	err := row.Scan(
		&t.ID, &t.OrderID, &eventID, &extID, &t.ScanToken, &t.SequenceNumber,
		&t.Status, &t.ScannedAt, &t.ScannedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.EventRef = refFromColumns(eventID, extID)
	return &t, nil
}

func (r *pgTicketRepository) Get(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		r.l.Errorf(ctx, "pgTicketRepository.Get: %v", err)
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

func (r *pgTicketRepository) GetByScanToken(ctx context.Context, token string) (*models.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE scan_token = $1`, token,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		r.l.Errorf(ctx, "pgTicketRepository.GetByScanToken: %v", err)
		return nil, fmt.Errorf("get ticket by scan token: %w", err)
	}
	return t, nil
}

func (r *pgTicketRepository) ListByOrder(ctx context.Context, orderID string) ([]*models.Ticket, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = $1 ORDER BY sequence_number`, orderID,
	)
	if err != nil {
		r.l.Errorf(ctx, "pgTicketRepository.ListByOrder: %v", err)
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// MarkUsed is the single conditional write that makes scanning
// race-free: of two simultaneous scans only one statement matches
// status='valid'. False means the ticket was not in valid state (or
// the token is unknown); callers re-read to find out which.
func (r *pgTicketRepository) MarkUsed(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET status = $2, scanned_at = $3, scanned_by = $4, updated_at = $3
		 WHERE scan_token = $1 AND status = $5`,
		token, models.TicketStatusUsed, at, scannerID, models.TicketStatusValid,
	)
	if err != nil {
		r.l.Errorf(ctx, "pgTicketRepository.MarkUsed: %v", err)
		return false, fmt.Errorf("mark ticket used: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgTicketRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET status = $2, updated_at = $3
		 WHERE id = $1 AND status = $4`,
		id, models.TicketStatusCancelled, time.Now(), models.TicketStatusValid,
	)
	if err != nil {
		r.l.Errorf(ctx, "pgTicketRepository.MarkCancelled: %v", err)
		return false, fmt.Errorf("cancel ticket: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
