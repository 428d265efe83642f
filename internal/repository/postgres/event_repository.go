package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

type EventRepository interface {
	Create(ctx context.Context, ev *models.Event) error
	Get(ctx context.Context, id string) (*models.Event, error)
	GetExternal(ctx context.Context, id string) (*models.ExternalEvent, error)
}

type pgEventRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewEventRepository(db *pgxpool.Pool, l logger.Logger) EventRepository {
	return &pgEventRepository{
		db: db,
		l:  l,
	}
}

const eventColumns = `id, title, description, starts_at, capacity, tickets_sold, price_cents, currency, host_account_id, status, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var ev models.Event
	err := row.Scan(
		&ev.ID, &ev.Title, &ev.Description, &ev.StartsAt,
		&ev.Capacity, &ev.TicketsSold, &ev.PriceCents, &ev.Currency,
		&ev.HostAccountID, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *pgEventRepository) Create(ctx context.Context, ev *models.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ev.ID, ev.Title, ev.Description, ev.StartsAt,
		ev.Capacity, ev.TicketsSold, ev.PriceCents, ev.Currency,
		ev.HostAccountID, ev.Status, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		r.l.Errorf(ctx, "pgEventRepository.Create: %v", err)
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *pgEventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	ev, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		r.l.Errorf(ctx, "pgEventRepository.Get: %v", err)
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func (r *pgEventRepository) GetExternal(ctx context.Context, id string) (*models.ExternalEvent, error) {
	var ev models.ExternalEvent
	err := r.db.QueryRow(ctx,
		`SELECT id, title, starts_at, price_cents, currency, status, source, created_at, updated_at
		 FROM external_events WHERE id = $1`, id,
	).Scan(
		&ev.ID, &ev.Title, &ev.StartsAt, &ev.PriceCents, &ev.Currency,
		&ev.Status, &ev.Source, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		r.l.Errorf(ctx, "pgEventRepository.GetExternal: %v", err)
		return nil, fmt.Errorf("get external event: %w", err)
	}
	return &ev, nil
}
