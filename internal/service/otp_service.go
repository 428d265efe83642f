package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/vogiaan1904/ticketbottle-checkout/config"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/monitoring"
	repo "github.com/vogiaan1904/ticketbottle-checkout/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/random"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/redis"
)

// OTPService issues and verifies short-lived login codes. Delivery of
// the code (email/SMS) belongs to the notification service.
type OTPService interface {
	Issue(ctx context.Context, identifier string) (*IssuedOTP, error)
	Verify(ctx context.Context, identifier, candidate string) error
}

type IssuedOTP struct {
	Identifier string
	Code       string
	ExpiresAt  time.Time
}

type otpService struct {
	repo repo.OTPRepository
	conf config.OTPConfig
	l    logger.Logger
}

func NewOTPService(repo repo.OTPRepository, conf config.OTPConfig, l logger.Logger) OTPService {
	return &otpService{
		repo: repo,
		conf: conf,
		l:    l,
	}
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Issue overwrites any previous code: fresh TTL, attempts reset.
func (s *otpService) Issue(ctx context.Context, identifier string) (*IssuedOTP, error) {
	identifier = normalizeIdentifier(identifier)

	code, err := random.GenerateOTP(s.conf.Length)
	if err != nil {
		s.l.Errorf(ctx, "service.otpService.Issue: %v", err)
		return nil, err
	}

	rec := &models.OTPRecord{
		Code:      code,
		Attempts:  0,
		ExpiresAt: time.Now().Add(s.conf.TTL),
	}
	if err := s.repo.Save(ctx, identifier, rec, s.conf.TTL); err != nil {
		s.l.Errorf(ctx, "service.otpService.Issue: %v", err)
		return nil, err
	}

	monitoring.ObserveOTPIssued()

	return &IssuedOTP{
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}

// Verify consumes the code on success. The attempt ceiling is
// terminal: once reached the record is gone and even the correct code
// fails until a new one is issued.
func (s *otpService) Verify(ctx context.Context, identifier, candidate string) error {
	identifier = normalizeIdentifier(identifier)

	rec, err := s.repo.Get(ctx, identifier)
	if err != nil {
		if err == redis.Nil {
			monitoring.ObserveOTPVerification("expired")
			return ErrOTPExpired
		}
		s.l.Errorf(ctx, "service.otpService.Verify: %v", err)
		return err
	}

	now := time.Now()
	if rec.IsExpired(now) {
		_ = s.repo.Delete(ctx, identifier)
		monitoring.ObserveOTPVerification("expired")
		return ErrOTPExpired
	}

	if rec.Attempts >= s.conf.MaxAttempts {
		if err := s.repo.Delete(ctx, identifier); err != nil {
			s.l.Errorf(ctx, "service.otpService.Verify: %v", err)
		}
		monitoring.ObserveOTPVerification("too_many_attempts")
		return ErrOTPTooManyAttempts
	}

	// Constant-time compare to avoid a timing side channel.
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(candidate)) == 1 {
		if err := s.repo.Delete(ctx, identifier); err != nil {
			s.l.Errorf(ctx, "service.otpService.Verify: %v", err)
			return err
		}
		monitoring.ObserveOTPVerification("ok")
		return nil
	}

	rec.Attempts++
	if err := s.repo.Save(ctx, identifier, rec, time.Until(rec.ExpiresAt)); err != nil {
		s.l.Errorf(ctx, "service.otpService.Verify: %v", err)
		return err
	}

	monitoring.ObserveOTPVerification("mismatch")
	return ErrOTPMismatch
}
