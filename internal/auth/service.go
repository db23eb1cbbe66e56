// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/middleware"
	"github.com/carterperez-dev/bloghub/internal/notify"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = fmt.Errorf("email already exists: %w", core.ErrDuplicateKey)
)

type UserInfo struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    string
	Role            string
	ProfileImageURL string
	CreatedAt       time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type SessionIssuer interface {
	IssueSession(userID, role string) (*IssuedSession, error)
}

type SessionRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) bool
}

type Service struct {
	sessions     SessionIssuer
	userProvider UserProvider
	revoker      SessionRevoker
	notifier     Notifier
	logger       *slog.Logger
}

func NewService(
	sessions SessionIssuer,
	userProvider UserProvider,
	revoker SessionRevoker,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessions:     sessions,
		userProvider: userProvider,
		revoker:      revoker,
		notifier:     notifier,
		logger:       logger,
	}
}

// AuthResult pairs the signed-in user with the session to hand back as a
// cookie.
type AuthResult struct {
	User    *UserInfo
	Session *IssuedSession
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResult, error) {
	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, req.Email, hash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.sessions.IssueSession(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.notifier.Notify(ctx, notify.Welcome(user.Email, user.Name))

	return &AuthResult{User: user, Session: session}, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResult, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.Warn("rehash password", "user_id", user.ID, "error", err)
		}
	}

	session, err := s.sessions.IssueSession(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &AuthResult{User: user, Session: session}, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.SessionClaims,
) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}

	if err := s.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("current user: %w", core.ErrUnauthorized)
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}
