package service

import (
	"context"
	"errors"
	"time"

	"github.com/vogiaan1904/ticketbottle-checkout/config"
	kafka "github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/monitoring"
	pgRepo "github.com/vogiaan1904/ticketbottle-checkout/internal/repository/postgres"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/util"
)

// TicketService governs the ticket state machine: valid → used,
// valid → cancelled, valid → refunded, all terminal.
type TicketService interface {
	Scan(ctx context.Context, in ScanInput) (*ScanOutput, error)
	Verify(ctx context.Context, token string) (*TicketView, error)
	Cancel(ctx context.Context, ticketID string) (*models.Ticket, error)
}

type ticketService struct {
	tRepo pgRepo.TicketRepository
	eRepo pgRepo.EventRepository
	prod  producer.Producer
	conf  config.CheckoutConfig
	l     logger.Logger
}

func NewTicketService(
	tRepo pgRepo.TicketRepository,
	eRepo pgRepo.EventRepository,
	prod producer.Producer,
	conf config.CheckoutConfig,
	l logger.Logger,
) TicketService {
	return &ticketService{
		tRepo: tRepo,
		eRepo: eRepo,
		prod:  prod,
		conf:  conf,
		l:     l,
	}
}

// Scan redeems a ticket at the venue. The caller identity is already
// authorized by the delivery layer. The authoritative transition is
// the conditional write in MarkUsed; everything before it is advisory
// and re-checked by that write, so two simultaneous scans of the same
// token yield exactly one success.
func (s *ticketService) Scan(ctx context.Context, in ScanInput) (*ScanOutput, error) {
	t, err := s.getByToken(ctx, in.Token)
	if err != nil {
		monitoring.ObserveScan("not_found")
		return nil, err
	}

	if err := s.checkRedeemable(t); err != nil {
		monitoring.ObserveScan(scanOutcome(err))
		return nil, err
	}

	startsAt, err := s.eventStart(ctx, t.EventRef)
	if err != nil {
		s.l.Errorf(ctx, "service.ticketService.Scan: %v", err)
		monitoring.ObserveScan("error")
		return nil, err
	}

	now := time.Now()
	if err := s.checkEntryWindow(startsAt, now); err != nil {
		monitoring.ObserveScan(scanOutcome(err))
		return nil, err
	}

	updated, err := s.tRepo.MarkUsed(ctx, in.Token, in.ScannerID, now)
	if err != nil {
		s.l.Errorf(ctx, "service.ticketService.Scan: %v", err)
		monitoring.ObserveScan("error")
		return nil, err
	}
	if !updated {
		// A concurrent scan won the conditional write; re-read for the
		// winner's scanned_at.
		t, err := s.getByToken(ctx, in.Token)
		if err != nil {
			monitoring.ObserveScan("error")
			return nil, err
		}
		monitoring.ObserveScan("already_used")
		return nil, scanFailure(t)
	}

	t.Status = models.TicketStatusUsed
	t.ScannedAt = &now
	t.ScannedBy = in.ScannerID
	t.UpdatedAt = now

	monitoring.ObserveScan("used")

	if err := s.prod.PublishTicketScanned(ctx, kafka.TicketScannedEvent{
		TicketID:  t.ID,
		OrderID:   t.OrderID,
		EventID:   t.EventRef.ID,
		ScannedBy: in.ScannerID,
		ScannedAt: now,
	}); err != nil {
		s.l.Errorf(ctx, "service.ticketService.Scan: %v", err)
	}

	return &ScanOutput{Ticket: t}, nil
}

// Verify is the read-only pre-entry check for the door display. It
// never mutates status and may observe slightly stale state; the scan
// itself re-checks under its conditional write.
func (s *ticketService) Verify(ctx context.Context, token string) (*TicketView, error) {
	t, err := s.getByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	title, startsAt, err := s.eventDisplay(ctx, t.EventRef)
	if err != nil {
		s.l.Errorf(ctx, "service.ticketService.Verify: %v", err)
		return nil, err
	}

	return &TicketView{
		TicketID:       t.ID,
		SequenceNumber: t.SequenceNumber,
		Status:         t.Status,
		EventTitle:     title,
		EventStartsAt:  util.TimeToISO8601Str(startsAt),
		ScannedAt:      t.ScannedAt,
	}, nil
}

// Cancel is the host-initiated valid → cancelled transition. Losing
// the conditional write maps the same way a losing scan does.
func (s *ticketService) Cancel(ctx context.Context, ticketID string) (*models.Ticket, error) {
	updated, err := s.tRepo.MarkCancelled(ctx, ticketID)
	if err != nil {
		s.l.Errorf(ctx, "service.ticketService.Cancel: %v", err)
		return nil, err
	}

	t, err := s.tRepo.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgRepo.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	if !updated {
		return nil, scanFailure(t)
	}

	s.l.Infof(ctx, "ticket %s cancelled", t.ID)
	return t, nil
}

func (s *ticketService) getByToken(ctx context.Context, token string) (*models.Ticket, error) {
	t, err := s.tRepo.GetByScanToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgRepo.ErrTicketNotFound) {
			s.l.Warnf(ctx, "service.ticketService.getByToken: %v", ErrTicketNotFound)
			return nil, ErrTicketNotFound
		}
		s.l.Errorf(ctx, "service.ticketService.getByToken: %v", err)
		return nil, err
	}
	return t, nil
}

func (s *ticketService) checkRedeemable(t *models.Ticket) error {
	if t.IsRedeemable() {
		return nil
	}
	return scanFailure(t)
}

// checkEntryWindow admits from starts_at − early window through
// starts_at + late window, boundaries included.
func (s *ticketService) checkEntryWindow(startsAt, now time.Time) error {
	if now.Before(startsAt.Add(-s.conf.ScanEarlyWindow)) {
		return ErrScanTooEarly
	}
	if now.After(startsAt.Add(s.conf.ScanLateWindow)) {
		return ErrScanTooLate
	}
	return nil
}

func (s *ticketService) eventStart(ctx context.Context, ref models.EventRef) (time.Time, error) {
	if ref.IsLocal() {
		ev, err := s.eRepo.Get(ctx, ref.ID)
		if err != nil {
			return time.Time{}, err
		}
		return ev.StartsAt, nil
	}
	ev, err := s.eRepo.GetExternal(ctx, ref.ID)
	if err != nil {
		return time.Time{}, err
	}
	return ev.StartsAt, nil
}

func (s *ticketService) eventDisplay(ctx context.Context, ref models.EventRef) (string, time.Time, error) {
	if ref.IsLocal() {
		ev, err := s.eRepo.Get(ctx, ref.ID)
		if err != nil {
			return "", time.Time{}, err
		}
		return ev.Title, ev.StartsAt, nil
	}
	ev, err := s.eRepo.GetExternal(ctx, ref.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	return ev.Title, ev.StartsAt, nil
}

// scanFailure maps a non-valid ticket to the operator-facing error.
// AlreadyUsed keeps the prior scanned_at for operator feedback.
func scanFailure(t *models.Ticket) error {
	switch t.Status {
	case models.TicketStatusUsed:
		return &AlreadyUsedError{ScannedAt: t.ScannedAt, ScannedBy: t.ScannedBy}
	case models.TicketStatusCancelled, models.TicketStatusRefunded:
		return ErrTicketInvalid
	default:
		return ErrTicketInvalid
	}
}

func scanOutcome(err error) string {
	switch {
	case errors.Is(err, ErrTicketAlreadyUsed):
		return "already_used"
	case errors.Is(err, ErrTicketInvalid):
		return "invalid"
	case errors.Is(err, ErrScanTooEarly):
		return "too_early"
	case errors.Is(err, ErrScanTooLate):
		return "too_late"
	default:
		return "error"
	}
}
