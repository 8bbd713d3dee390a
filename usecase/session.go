package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/open2fa/console/domain/entities"
	"github.com/open2fa/console/repository"
)

// tokenPrefix marks console session tokens in logs and persisted state.
const tokenPrefix = "o2fa_"

// Sessions authenticates credentials and owns the token -> user bindings.
// A token exists only between a successful login and an explicit logout or
// invalidation; no expiry is modeled. The binding map is written through to
// its snapshot slot and re-validated against the user set on startup.
type Sessions struct {
	mu     sync.RWMutex
	byName map[string]*entities.User
	byID   map[string]*entities.User
	tokens map[string]string // token -> user id
	store  repository.SnapshotStore
	logger *zap.Logger
}

// NewSessions builds the session manager over a fixed user set and restores
// previously persisted token bindings. Bindings for unknown users and
// unreadable snapshots are dropped silently; a stale session must surface as
// "not authenticated", never as an error.
func NewSessions(ctx context.Context, users []entities.User, store repository.SnapshotStore, logger *zap.Logger) *Sessions {
	s := &Sessions{
		byName: make(map[string]*entities.User, len(users)),
		byID:   make(map[string]*entities.User, len(users)),
		tokens: make(map[string]string),
		store:  store,
		logger: logger,
	}
	for i := range users {
		u := users[i]
		s.byName[u.Username] = &u
		s.byID[u.ID] = &u
	}
	s.restore(ctx)
	return s
}

func (s *Sessions) restore(ctx context.Context) {
	raw, err := s.store.Read(ctx, repository.SessionSlot)
	if err != nil {
		s.logger.Warn("failed to read session snapshot, starting empty", zap.Error(err))
		return
	}
	if len(raw) == 0 {
		return
	}
	var persisted map[string]string
	if err := json.Unmarshal(raw, &persisted); err != nil {
		s.logger.Warn("corrupt session snapshot, starting empty", zap.Error(err))
		return
	}
	restored := 0
	for token, userID := range persisted {
		if _, known := s.byID[userID]; !known {
			continue
		}
		s.tokens[token] = userID
		restored++
	}
	if restored > 0 {
		s.logger.Info("sessions restored", zap.Int("count", restored))
	}
}

func (s *Sessions) persist(ctx context.Context) {
	raw, err := json.Marshal(s.tokens)
	if err != nil {
		s.logger.Error("failed to encode session snapshot", zap.Error(err))
		return
	}
	if err := s.store.Write(ctx, repository.SessionSlot, raw); err != nil {
		s.logger.Error("failed to persist session snapshot", zap.Error(err))
	}
}

// newToken mints an unguessable opaque bearer token.
func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("mint session token: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(buf), nil
}

// Login authenticates the credentials and mints a fresh token bound to the
// user. Multiple concurrent tokens per user are permitted.
func (s *Sessions) Login(ctx context.Context, username, password string) (string, entities.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byName[strings.TrimSpace(username)]
	if !ok || user.Password != password {
		return "", "", entities.ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", "", err
	}
	s.tokens[token] = user.ID
	s.persist(ctx)

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))

	return token, user.Role, nil
}

// Resolve maps a token to its bound user.
func (s *Sessions) Resolve(token string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.tokens[token]
	if !ok {
		return nil, entities.ErrUnauthorized
	}
	user, ok := s.byID[userID]
	if !ok {
		return nil, entities.ErrUnauthorized
	}
	userCopy := *user
	return &userCopy, nil
}

// Authorize resolves the token and checks the bound user's role against the
// requirement.
func (s *Sessions) Authorize(token string, required entities.Role) (*entities.User, error) {
	user, err := s.Resolve(token)
	if err != nil {
		return nil, err
	}
	if !user.Role.Satisfies(required) {
		return nil, entities.ErrForbidden
	}
	return user, nil
}

// Logout unbinds the token. Idempotent: unbinding an unknown token is a no-op.
func (s *Sessions) Logout(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token]; !ok {
		return
	}
	delete(s.tokens, token)
	s.persist(ctx)
}

// RestoreSession re-validates a token persisted by a previous process. On
// failure the stale binding is cleared and "no session" is reported; a stale
// token never surfaces as a hard failure.
func (s *Sessions) RestoreSession(ctx context.Context, token string) (*entities.User, bool) {
	if token == "" {
		return nil, false
	}
	user, err := s.Resolve(token)
	if err != nil {
		s.mu.Lock()
		if _, ok := s.tokens[token]; ok {
			delete(s.tokens, token)
			s.persist(ctx)
		}
		s.mu.Unlock()
		return nil, false
	}
	return user, true
}
