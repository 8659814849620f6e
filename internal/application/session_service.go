package application

import (
	"context"
	"fmt"
	"log/slog"
)

// UserRepository exposes the stored user accounts.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]UserAccount, error)
}

// SessionStore persists the single current identity.
type SessionStore interface {
	LoadCurrentUser(ctx context.Context) (Identity, bool, error)
	SaveCurrentUser(ctx context.Context, identity Identity) error
	ClearCurrentUser(ctx context.Context) error
}

// Session is the signed-in identity handed to callers. A nil *Session is signed out.
type Session struct {
	Identity Identity
}

// HasRole reports whether the session is active and its role is one of roles.
func (s *Session) HasRole(roles ...Role) bool {
	if s == nil || s.Identity.ID == "" {
		return false
	}
	return isMember(s.Identity.Role, roles)
}

// Principal returns the identity services authorize against.
func (s *Session) Principal() Principal {
	if s == nil {
		return Principal{}
	}
	return Principal{UserID: s.Identity.ID, Role: s.Identity.Role}
}

// SessionService authenticates users and manages the current-session slot.
type SessionService struct {
	users          UserRepository
	sessions       SessionStore
	verifyPassword PasswordVerifier
	logger         *slog.Logger
}

// NewSessionService constructs a session service. A nil verifier compares plaintext.
func NewSessionService(users UserRepository, sessions SessionStore, verify PasswordVerifier) *SessionService {
	return NewSessionServiceWithLogger(users, sessions, verify, nil)
}

// NewSessionServiceWithLogger constructs a session service with a specified logger.
func NewSessionServiceWithLogger(users UserRepository, sessions SessionStore, verify PasswordVerifier, logger *slog.Logger) *SessionService {
	if verify == nil {
		verify = PlainPassword
	}
	return &SessionService{users: users, sessions: sessions, verifyPassword: verify, logger: defaultLogger(logger)}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// Authenticate returns the first user whose e-mail and password match exactly.
func (s *SessionService) Authenticate(ctx context.Context, email, password string) (identity Identity, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", identity.ID, "role", identity.Role).InfoContext(ctx, "authentication succeeded")
	}()

	var accounts []UserAccount
	accounts, err = s.users.ListUsers(ctx)
	if err != nil {
		err = mapStoreError("authenticate", err)
		return
	}
	for _, account := range accounts {
		if account.Email != email {
			continue
		}
		if s.verifyPassword(account.Password, password) == nil {
			identity = account.Identity()
			return
		}
	}
	err = ErrInvalidCredentials
	return
}

// SignIn authenticates and stores the identity as the current session.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	identity, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.SetCurrent(ctx, identity); err != nil {
		return nil, err
	}
	return &Session{Identity: identity}, nil
}

// SetCurrent stores identity as the current session.
func (s *SessionService) SetCurrent(ctx context.Context, identity Identity) error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session store not configured")
	}
	if err := s.sessions.SaveCurrentUser(ctx, identity); err != nil {
		err = mapStoreError("set current session", err)
		s.loggerWith(ctx, "SetCurrent").ErrorContext(ctx, "failed to store session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// Current returns the stored session or ErrNoSession.
func (s *SessionService) Current(ctx context.Context) (*Session, error) {
	if s == nil {
		return nil, fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return nil, ErrNoSession
	}
	identity, ok, err := s.sessions.LoadCurrentUser(ctx)
	if err != nil {
		return nil, mapStoreError("load current session", err)
	}
	if !ok || identity.ID == "" {
		return nil, ErrNoSession
	}
	return &Session{Identity: identity}, nil
}

// ClearCurrent signs out.
func (s *SessionService) ClearCurrent(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.ClearCurrentUser(ctx); err != nil {
		return mapStoreError("clear current session", err)
	}
	s.loggerWith(ctx, "ClearCurrent").InfoContext(ctx, "signed out")
	return nil
}
