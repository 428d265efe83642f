package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	pkgLog "github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

func TestRedisOTPRepository_SaveGetDelete(t *testing.T) {
	cli, mock := redismock.NewClientMock()
	repo := NewRedisOTPRepository(cli, pkgLog.InitializeTestZapLogger())
	ctx := context.Background()

	rec := &models.OTPRecord{
		Code:      "123456",
		Attempts:  1,
		ExpiresAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectSet("otp:user@example.com", data, 5*time.Minute).SetVal("OK")
	require.NoError(t, repo.Save(ctx, "user@example.com", rec, 5*time.Minute))

	mock.ExpectGet("otp:user@example.com").SetVal(string(data))
	got, err := repo.Get(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, rec.Code, got.Code)
	assert.Equal(t, rec.Attempts, got.Attempts)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))

	mock.ExpectDel("otp:user@example.com").SetVal(1)
	require.NoError(t, repo.Delete(ctx, "user@example.com"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisOTPRepository_GetMissing(t *testing.T) {
	cli, mock := redismock.NewClientMock()
	repo := NewRedisOTPRepository(cli, pkgLog.InitializeTestZapLogger())

	mock.ExpectGet("otp:missing@example.com").RedisNil()

	_, err := repo.Get(context.Background(), "missing@example.com")
	assert.Equal(t, redis.Nil, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRateLimitRepository_Hit(t *testing.T) {
	cli, mock := redismock.NewClientMock()
	repo := NewRedisRateLimitRepository(cli, pkgLog.InitializeTestZapLogger())
	ctx := context.Background()

	// First hit opens the window.
	mock.ExpectIncr("ratelimit:otp:1.2.3.4").SetVal(1)
	mock.ExpectExpire("ratelimit:otp:1.2.3.4", time.Minute).SetVal(true)

	count, err := repo.Hit(ctx, "otp", "1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Subsequent hits only increment.
	mock.ExpectIncr("ratelimit:otp:1.2.3.4").SetVal(2)

	count, err = repo.Hit(ctx, "otp", "1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
