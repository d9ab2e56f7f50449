package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenRevoked = errors.New("session token revoked")
)

// SessionClaims are carried by the bearer token issued after a successful login
type SessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenService issues session tokens and keeps a revocation list in Redis
type TokenService struct {
	secret []byte
	expiry time.Duration
	redis  *redis.Client
	now    func() time.Time
}

// NewTokenService creates a token service. A nil redis client disables revocation.
func NewTokenService(secret string, expiry time.Duration, redisClient *redis.Client) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		redis:  redisClient,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(sessionID, terminalID string) (string, error) {
	now := s.now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    terminalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token and checks it has not been revoked
func (s *TokenService) Parse(ctx context.Context, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	if s.redis != nil {
		revoked, err := s.redis.Exists(ctx, blacklistKey(claims.ID)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked > 0 {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Revoke blacklists a token until it would have expired anyway
func (s *TokenService) Revoke(ctx context.Context, claims *SessionClaims) {
	if s.redis == nil || claims.ExpiresAt == nil {
		return
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return
	}

	if err := s.redis.Set(ctx, blacklistKey(claims.ID), "1", ttl).Err(); err != nil {
		log.Printf("[AUTH] Failed to blacklist token: %v", err)
	}
}

func blacklistKey(tokenID string) string {
	return fmt.Sprintf("blacklist:%s", tokenID)
}
