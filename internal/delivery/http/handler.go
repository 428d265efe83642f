package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/ticketbottle-checkout/config"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/payment"
	redisRepo "github.com/vogiaan1904/ticketbottle-checkout/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-checkout/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/response"
)

type Handler struct {
	checkoutSvc service.CheckoutService
	fulfillSvc  service.FulfillmentService
	ticketSvc   service.TicketService
	otpSvc      service.OTPService
	tokenSvc    service.TokenService
	rlRepo      redisRepo.RateLimitRepository

	payConf config.PaymentConfig
	rlConf  config.RateLimitConfig

	db    *pgxpool.Pool
	redis *redis.Client

	validator *validator.Validate
	l         logger.Logger
}

func NewHandler(
	checkoutSvc service.CheckoutService,
	fulfillSvc service.FulfillmentService,
	ticketSvc service.TicketService,
	otpSvc service.OTPService,
	tokenSvc service.TokenService,
	rlRepo redisRepo.RateLimitRepository,
	payConf config.PaymentConfig,
	rlConf config.RateLimitConfig,
	db *pgxpool.Pool,
	redisCli *redis.Client,
	l logger.Logger,
) *Handler {
	return &Handler{
		checkoutSvc: checkoutSvc,
		fulfillSvc:  fulfillSvc,
		ticketSvc:   ticketSvc,
		otpSvc:      otpSvc,
		tokenSvc:    tokenSvc,
		rlRepo:      rlRepo,
		payConf:     payConf,
		rlConf:      rlConf,
		db:          db,
		redis:       redisCli,
		validator:   validator.New(),
		l:           l,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Ping(ctx); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "postgres": err.Error()})
		return
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "checkout-service",
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, pkgErrors.NewHTTPError(http.StatusBadRequest, 400, "Invalid request body"))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		details := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		response.ErrorWithDetails(w, pkgErrors.NewHTTPError(http.StatusBadRequest, 400, "Validation failed"), details)
		return false
	}
	return true
}

// respondError maps service sentinels onto HTTP statuses in one place.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var usedErr *service.AlreadyUsedError
	if errors.As(err, &usedErr) {
		response.ErrorWithDetails(w,
			pkgErrors.NewHTTPError(http.StatusConflict, 409, service.ErrTicketAlreadyUsed.Error()),
			map[string]any{"scanned_at": usedErr.ScannedAt, "scanned_by": usedErr.ScannedBy},
		)
		return
	}

	switch {
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrTicketNotFound):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusNotFound, 404, err.Error()))
	case errors.Is(err, service.ErrCapacityExceeded):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusConflict, 409, err.Error()))
	case errors.Is(err, service.ErrEventNotActive),
		errors.Is(err, service.ErrHostNotOnboarded),
		errors.Is(err, service.ErrOrderNotRefundable),
		errors.Is(err, service.ErrTicketInvalid),
		errors.Is(err, service.ErrScanTooEarly),
		errors.Is(err, service.ErrScanTooLate):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusUnprocessableEntity, 422, err.Error()))
	case errors.Is(err, service.ErrOrderForbidden):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusForbidden, 403, err.Error()))
	case errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPMismatch):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusUnauthorized, 401, err.Error()))
	case errors.Is(err, service.ErrOTPTooManyAttempts):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusTooManyRequests, 429, err.Error()))
	case errors.Is(err, service.ErrRateLimited):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusTooManyRequests, 429, err.Error()))
	case errors.Is(err, service.ErrInvalidToken):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusUnauthorized, 401, err.Error()))
	case errors.Is(err, payment.ErrInvalidSignature):
		response.Error(w, pkgErrors.NewHTTPError(http.StatusBadRequest, 400, err.Error()))
	default:
		h.l.Errorf(r.Context(), "delivery.http.respondError: %v", err)
		response.Error(w, err)
	}
}
