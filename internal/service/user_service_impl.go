package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/repository"
	"github.com/google/uuid"
)

type userService struct {
	users repository.UserRepo
}

func NewUserService(users repository.UserRepo) UserService {
	return &userService{users: users}
}

func (s *userService) Create(ctx context.Context, u *domain.User) error {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return invalid("user name is required")
	}
	if !domain.ValidUserRoles[string(u.Role)] {
		return invalid("invalid role %q (admin, manager or sub)", u.Role)
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = time.Now().UTC()
	return s.users.Create(ctx, u)
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

type auditService struct {
	entries repository.AuditRepo
}

func NewAuditService(entries repository.AuditRepo) AuditService {
	return &auditService{entries: entries}
}

func (s *auditService) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	return s.entries.ListRecent(ctx, limit)
}
