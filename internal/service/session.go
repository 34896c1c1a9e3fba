package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

const tokenBytes = 32

// SessionService issues and validates admin bearer tokens. There is no
// server-side revoke: a token stays valid until it expires.
type SessionService struct {
	store repository.Store
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

func NewSessionService(store repository.Store, ttl time.Duration, log *slog.Logger) *SessionService {
	return &SessionService{store: store, ttl: ttl, log: log, now: time.Now}
}

func (s *SessionService) Issue(ctx context.Context, admin *model.AdminUser) (*model.AdminSession, error) {
	now := s.now()
	if n, err := s.store.Sessions().DeleteExpired(ctx, now); err != nil {
		s.log.Warn("purge expired sessions", "error", err)
	} else if n > 0 {
		s.log.Debug("purged expired sessions", "count", n)
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	session := &model.AdminSession{
		Token:     token,
		AdminID:   admin.ID,
		Username:  admin.Username,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Validate resolves a token to its session. Every rejection is ErrUnauthorized;
// only storage failures surface as other errors.
func (s *SessionService) Validate(ctx context.Context, token string) (*model.AdminSession, error) {
	if !wellFormedToken(token) {
		return nil, ErrUnauthorized
	}
	session, err := s.store.Sessions().GetValid(ctx, token, s.now())
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, ErrUnauthorized
	}
	return session, nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// wellFormedToken reports whether token is exactly 64 lower-case hex digits.
func wellFormedToken(token string) bool {
	if len(token) != tokenBytes*2 {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
