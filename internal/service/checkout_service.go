package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/shopspring/decimal"

	"github.com/vogiaan1904/ticketbottle-checkout/config"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/monitoring"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/payment"
	pgRepo "github.com/vogiaan1904/ticketbottle-checkout/internal/repository/postgres"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

type CheckoutService interface {
	Reserve(ctx context.Context, in ReserveInput) (*ReserveOutput, error)
	GetOrder(ctx context.Context, orderID, callerID string, host bool) (*OrderOutput, error)
	RefundOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetExternalEvent(ctx context.Context, id string) (*models.ExternalEvent, error)
}

type checkoutService struct {
	eRepo  pgRepo.EventRepository
	oRepo  pgRepo.OrderRepository
	tRepo  pgRepo.TicketRepository
	payCli payment.Client
	conf   config.CheckoutConfig
	l      logger.Logger
}

func NewCheckoutService(
	eRepo pgRepo.EventRepository,
	oRepo pgRepo.OrderRepository,
	tRepo pgRepo.TicketRepository,
	payCli payment.Client,
	conf config.CheckoutConfig,
	l logger.Logger,
) CheckoutService {
	return &checkoutService{
		eRepo:  eRepo,
		oRepo:  oRepo,
		tRepo:  tRepo,
		payCli: payCli,
		conf:   conf,
		l:      l,
	}
}

// Reserve creates a pending order and closes the capacity window the
// instant the purchase is initiated, not when the payment settles. The
// provider call happens strictly after the transaction commits.
func (s *checkoutService) Reserve(ctx context.Context, in ReserveInput) (*ReserveOutput, error) {
	if err := in.EventRef.Validate(); err != nil {
		s.l.Warnf(ctx, "service.checkoutService.Reserve: %v", err)
		return nil, ErrEventNotFound
	}
	if in.Quantity < 1 || in.Quantity > s.conf.MaxQuantity {
		return nil, fmt.Errorf("quantity must be between 1 and %d", s.conf.MaxQuantity)
	}

	var (
		o   *models.Order
		err error
	)
	if in.EventRef.IsLocal() {
		o, err = s.reserveLocal(ctx, in)
	} else {
		o, err = s.reserveExternal(ctx, in)
	}
	if err != nil {
		monitoring.ObserveReservation(reserveOutcome(err))
		return nil, err
	}
	monitoring.ObserveReservation("reserved")

	destination := ""
	if o.EventRef.IsLocal() {
		ev, err := s.eRepo.Get(ctx, o.EventRef.ID)
		if err != nil {
			s.l.Errorf(ctx, "service.checkoutService.Reserve: %v", err)
			return nil, err
		}
		destination = ev.HostAccountID
	}

	intent, err := s.payCli.CreateIntent(ctx, payment.CreateIntentInput{
		PaymentReference:   o.PaymentReference,
		AmountCents:        o.AmountCents,
		Currency:           o.Currency,
		DestinationAccount: destination,
		ApplicationFee:     o.FeeSplitCents,
		ReceiptEmail:       o.BuyerEmail,
	})
	if err != nil {
		// The pending order keeps its capacity; a stale-order release
		// job reclaims it out of band.
		s.l.Errorf(ctx, "service.checkoutService.Reserve: %v", err)
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &ReserveOutput{
		Order:        o,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *checkoutService) reserveLocal(ctx context.Context, in ReserveInput) (*models.Order, error) {
	ev, err := s.eRepo.Get(ctx, in.EventRef.ID)
	if err != nil {
		if errors.Is(err, pgRepo.ErrEventNotFound) {
			s.l.Warnf(ctx, "service.checkoutService.reserveLocal: %v", ErrEventNotFound)
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !ev.IsSellable() {
		return nil, ErrEventNotActive
	}

	amount := ev.PriceCents * int64(in.Quantity)
	o := s.buildOrder(in, amount, s.feeSplit(amount), ev.Currency)

	if err := s.oRepo.ReserveLocal(ctx, o); err != nil {
		switch {
		case errors.Is(err, pgRepo.ErrEventNotFound):
			return nil, ErrEventNotFound
		case errors.Is(err, pgRepo.ErrEventNotActive):
			return nil, ErrEventNotActive
		case errors.Is(err, pgRepo.ErrHostNotOnboarded):
			return nil, ErrHostNotOnboarded
		case errors.Is(err, pgRepo.ErrCapacityExceeded):
			s.l.Warnf(ctx, "service.checkoutService.reserveLocal: %v", ErrCapacityExceeded)
			return nil, ErrCapacityExceeded
		default:
			s.l.Errorf(ctx, "service.checkoutService.reserveLocal: %v", err)
			return nil, err
		}
	}

	return o, nil
}

// reserveExternal sells against a listing the sync job maintains. The
// external catalog owns inventory, the charge lands on the platform
// account and no fee split is recorded.
func (s *checkoutService) reserveExternal(ctx context.Context, in ReserveInput) (*models.Order, error) {
	ev, err := s.eRepo.GetExternal(ctx, in.EventRef.ID)
	if err != nil {
		if errors.Is(err, pgRepo.ErrEventNotFound) {
			s.l.Warnf(ctx, "service.checkoutService.reserveExternal: %v", ErrEventNotFound)
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !ev.IsSellable() || time.Now().After(ev.StartsAt) {
		return nil, ErrEventNotActive
	}

	amount := ev.PriceCents * int64(in.Quantity)
	o := s.buildOrder(in, amount, 0, ev.Currency)

	if err := s.oRepo.CreateExternal(ctx, o); err != nil {
		s.l.Errorf(ctx, "service.checkoutService.reserveExternal: %v", err)
		return nil, err
	}

	return o, nil
}

func (s *checkoutService) buildOrder(in ReserveInput, amount, feeSplit int64, currency string) *models.Order {
	now := time.Now()
	return &models.Order{
		ID:               uuid.New().String(),
		Code:             shortuuid.New(),
		BuyerID:          in.BuyerID,
		BuyerEmail:       in.BuyerEmail,
		EventRef:         in.EventRef,
		Quantity:         in.Quantity,
		AmountCents:      amount,
		FeeSplitCents:    feeSplit,
		Currency:         currency,
		PaymentReference: "pay_" + shortuuid.New(),
		SessionID:        in.SessionID,
		Status:           models.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// feeSplit computes the platform share in whole cents, rounded half
// away from zero.
func (s *checkoutService) feeSplit(amountCents int64) int64 {
	return decimal.NewFromInt(amountCents).
		Mul(decimal.NewFromFloat(s.conf.PlatformFeePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

func (s *checkoutService) GetOrder(ctx context.Context, orderID, callerID string, host bool) (*OrderOutput, error) {
	o, err := s.oRepo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgRepo.ErrOrderNotFound) {
			s.l.Warnf(ctx, "service.checkoutService.GetOrder: %v", ErrOrderNotFound)
			return nil, ErrOrderNotFound
		}
		s.l.Errorf(ctx, "service.checkoutService.GetOrder: %v", err)
		return nil, err
	}

	if !host && o.BuyerID != callerID {
		return nil, ErrOrderForbidden
	}

	tickets, err := s.tRepo.ListByOrder(ctx, o.ID)
	if err != nil {
		s.l.Errorf(ctx, "service.checkoutService.GetOrder: %v", err)
		return nil, err
	}

	return &OrderOutput{Order: o, Tickets: tickets}, nil
}

func (s *checkoutService) RefundOrder(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.oRepo.Refund(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, pgRepo.ErrOrderNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, pgRepo.ErrOrderNotRefundable):
			return nil, ErrOrderNotRefundable
		default:
			s.l.Errorf(ctx, "service.checkoutService.RefundOrder: %v", err)
			return nil, err
		}
	}

	s.l.Infof(ctx, "order %s refunded", o.ID)
	return o, nil
}

func (s *checkoutService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	ev, err := s.eRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgRepo.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return ev, nil
}

func (s *checkoutService) GetExternalEvent(ctx context.Context, id string) (*models.ExternalEvent, error) {
	ev, err := s.eRepo.GetExternal(ctx, id)
	if err != nil {
		if errors.Is(err, pgRepo.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return ev, nil
}

func reserveOutcome(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrEventNotActive):
		return "event_not_active"
	case errors.Is(err, ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, ErrHostNotOnboarded):
		return "host_not_onboarded"
	default:
		return "error"
	}
}
