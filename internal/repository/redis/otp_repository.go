package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

type OTPRepository interface {
	Save(ctx context.Context, identifier string, rec *models.OTPRecord, ttl time.Duration) error
	Get(ctx context.Context, identifier string) (*models.OTPRecord, error)
	Delete(ctx context.Context, identifier string) error
}

type redisOTPRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisOTPRepository(cli *redis.Client, l logger.Logger) OTPRepository {
	return &redisOTPRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisOTPRepository) otpKey(identifier string) string {
	return fmt.Sprintf("otp:%s", identifier)
}

func (r *redisOTPRepository) Save(ctx context.Context, identifier string, rec *models.OTPRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal otp record: %w", err)
	}

	if err := r.cli.Set(ctx, r.otpKey(identifier), data, ttl).Err(); err != nil {
		r.l.Errorf(ctx, "redisOTPRepository.Save: %v", err)
		return err
	}

	return nil
}

// Get returns redis.Nil when no record exists; the service maps that
// to its own sentinel.
func (r *redisOTPRepository) Get(ctx context.Context, identifier string) (*models.OTPRecord, error) {
	data, err := r.cli.Get(ctx, r.otpKey(identifier)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.l.Errorf(ctx, "redisOTPRepository.Get: %v", err)
		}
		return nil, err
	}

	var rec models.OTPRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.l.Errorf(ctx, "redisOTPRepository.Get: %v", err)
		return nil, err
	}

	return &rec, nil
}

func (r *redisOTPRepository) Delete(ctx context.Context, identifier string) error {
	if err := r.cli.Del(ctx, r.otpKey(identifier)).Err(); err != nil {
		r.l.Errorf(ctx, "redisOTPRepository.Delete: %v", err)
		return err
	}
	return nil
}
