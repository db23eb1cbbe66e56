// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/bloghub/internal/auth"
	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/storage"
)

type ImageStore interface {
	PutImage(ctx context.Context, img *storage.Image) (*storage.StoredObject, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	repo          Repository
	images        ImageStore
	maxImageBytes int64
	logger        *slog.Logger
}

func NewService(
	repo Repository,
	images ImageStore,
	maxImageBytes int64,
	logger *slog.Logger,
) *Service {
	if images == nil {
		images = storage.Disabled{}
	}
	return &Service{
		repo:          repo,
		images:        images,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// Create always stores the user role. Admins are promoted out of band.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	if req.Name == nil {
		return s.repo.GetByID(ctx, userID)
	}

	return s.repo.UpdateName(ctx, userID, strings.TrimSpace(*req.Name))
}

// SetProfileImage uploads the new image before touching the row, so a
// failed upload leaves the old photo in place. The previous object is
// removed best-effort afterwards.
func (s *Service) SetProfileImage(
	ctx context.Context,
	userID, imageData string,
) (*User, error) {
	current, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	img, err := storage.DecodeDataURL(imageData, s.maxImageBytes)
	if err != nil {
		return nil, err
	}

	stored, err := s.images.PutImage(ctx, img)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetProfileImage(ctx, userID, &stored.URL, &stored.Key); err != nil {
		s.discardImage(ctx, stored.Key)
		return nil, err
	}

	if current.ProfileImageKey != nil {
		s.discardImage(ctx, *current.ProfileImageKey)
	}

	current.ProfileImageURL = &stored.URL
	current.ProfileImageKey = &stored.Key
	return current, nil
}

func (s *Service) RemoveProfileImage(
	ctx context.Context,
	userID string,
) (*User, error) {
	current, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetProfileImage(ctx, userID, nil, nil); err != nil {
		return nil, err
	}

	if current.ProfileImageKey != nil {
		s.discardImage(ctx, *current.ProfileImageKey)
	}

	current.ProfileImageURL = nil
	current.ProfileImageKey = nil
	return current, nil
}

func (s *Service) discardImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("delete profile image",
			"upstream", "storage",
			"key", key,
			"error", err,
		)
	}
}

// Authors resolves display info for many users in one query. Missing
// ids are absent from the map.
func (s *Service) Authors(
	ctx context.Context,
	ids []string,
) (map[string]Author, error) {
	users, err := s.repo.GetByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}

	out := make(map[string]Author, len(users))
	for i := range users {
		out[users[i].ID] = users[i].AsAuthor()
	}
	return out, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("update role: %w", core.Invalid("unknown role %q", role))
	}

	return s.repo.UpdateRole(ctx, id, role)
}

func (s *Service) PromoteByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return s.repo.UpdateRole(ctx, u.ID, RoleAdmin)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		PasswordHash:    u.PasswordHash,
		Role:            u.Role,
		ProfileImageURL: u.AsAuthor().ProfileImageURL,
		CreatedAt:       u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
