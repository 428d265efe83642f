package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vogiaan1904/ticketbottle-checkout/config"
)

const (
	RoleBuyer = "buyer"
	RoleHost  = "host"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	Subject       string
	Role          string
	HostAccountID string
}

// TokenService issues bearer tokens after OTP verification. Host
// tokens are provisioned out of band by ops tooling.
type TokenService interface {
	Generate(subject, role, hostAccountID string) (string, time.Time, error)
	Parse(token string) (*Claims, error)
}

type tokenService struct {
	conf config.JWTConfig
}

func NewTokenService(conf config.JWTConfig) TokenService {
	return &tokenService{conf: conf}
}

func (s *tokenService) Generate(subject, role, hostAccountID string) (string, time.Time, error) {
	expAt := time.Now().Add(s.conf.Expiry)

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  expAt.Unix(),
		"iat":  time.Now().Unix(),
		"jti":  uuid.New().String(),
	}
	if hostAccountID != "" {
		claims["acct"] = hostAccountID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(s.conf.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, expAt, nil
}

func (s *tokenService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.conf.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	role, _ := mapClaims["role"].(string)
	acct, _ := mapClaims["acct"].(string)
	if sub == "" || (role != RoleBuyer && role != RoleHost) {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Subject:       sub,
		Role:          role,
		HostAccountID: acct,
	}, nil
}
