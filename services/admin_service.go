package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/itamhack/hackathon-system/models"
	"github.com/itamhack/hackathon-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

type AdminService interface {
	Login(ctx context.Context, login string, password string) (string, *models.Admin, error)
	EnsureBootstrapAdmin(ctx context.Context, login string, password string) error
}

type adminService struct {
	adminRepo repositories.AdminRepository
	auth      AuthService
}

func NewAdminService(adminRepo repositories.AdminRepository, auth AuthService) AdminService {
	return &adminService{adminRepo: adminRepo, auth: auth}
}

func (s *adminService) Login(ctx context.Context, login string, password string) (string, *models.Admin, error) {
	admin, err := s.adminRepo.GetByLogin(ctx, nil, normalizeIdentity(login))
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return "", nil, ErrInvalidAdminCredentials
		}
		return "", nil, fmt.Errorf("failed to get admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidAdminCredentials
	}

	token, err := s.auth.GenerateToken(strconv.Itoa(admin.ID), AudienceAdmin)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

// EnsureBootstrapAdmin creates the configured admin account on startup if it
// does not exist yet. An existing account is left as is.
func (s *adminService) EnsureBootstrapAdmin(ctx context.Context, login string, password string) error {
	login = normalizeIdentity(login)
	if login == "" || password == "" {
		return nil
	}

	_, err := s.adminRepo.GetByLogin(ctx, nil, login)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrAdminNotFound) {
		return fmt.Errorf("failed to check admin %s: %w", login, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Admin{Login: login, PasswordHash: string(hash)}
	if err := s.adminRepo.Create(ctx, nil, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminLoginConflict) {
			return nil
		}
		return fmt.Errorf("failed to create admin %s: %w", login, err)
	}
	return nil
}
