package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/itamhack/hackathon-system/models"
	"github.com/itamhack/hackathon-system/repositories"
	"github.com/itamhack/hackathon-system/storage"
)

type ProfileService interface {
	ListParticipants(ctx context.Context) ([]*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error)
	UpdateProfile(ctx context.Context, telegramID string, input UpdateProfileInput, currentUserID string) (*models.User, error)
	UploadAvatar(ctx context.Context, telegramID string, contentType string, data []byte, currentUserID string) (*models.User, error)
	EnsureUser(ctx context.Context, telegramID string) (*models.User, error)
}

type UpdateProfileInput struct {
	Username    *string  `json:"username"`
	Fullname    *string  `json:"fullname"`
	Description *string  `json:"description"`
	Role        *string  `json:"role"`
	Tags        []string `json:"tags"`
}

type profileService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewProfileService(userRepo repositories.UserRepository, uploader storage.FileUploader) ProfileService {
	return &profileService{userRepo: userRepo, uploader: uploader}
}

func (s *profileService) ListParticipants(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, user := range users {
		populateUserAvatarURL(user, s.uploader)
	}
	return users, nil
}

func (s *profileService) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, nil, normalizeIdentity(telegramID))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", telegramID, err)
	}
	populateUserAvatarURL(user, s.uploader)
	return user, nil
}

// UpdateProfile applies partial edits to the caller's own profile. Nil fields
// are left untouched.
func (s *profileService) UpdateProfile(ctx context.Context, telegramID string, input UpdateProfileInput, currentUserID string) (*models.User, error) {
	target := normalizeIdentity(telegramID)
	if target != normalizeIdentity(currentUserID) {
		return nil, ErrProfileUpdateForbidden
	}

	user, err := s.userRepo.GetByTelegramID(ctx, nil, target)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", target, err)
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		user.Username = &username
	}
	if input.Fullname != nil {
		fullname := strings.TrimSpace(*input.Fullname)
		user.Fullname = &fullname
	}
	if input.Description != nil {
		user.Description = input.Description
	}
	if input.Role != nil {
		user.Role = input.Role
	}
	if input.Tags != nil {
		user.Tags = input.Tags
	}

	if err := s.userRepo.UpdateProfile(ctx, nil, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user %s: %w", target, err)
	}

	populateUserAvatarURL(user, s.uploader)
	return user, nil
}

// UploadAvatar stores the image in object storage and points the profile at
// the new key. The previous avatar object is removed afterwards.
func (s *profileService) UploadAvatar(ctx context.Context, telegramID string, contentType string, data []byte, currentUserID string) (*models.User, error) {
	target := normalizeIdentity(telegramID)
	if target != normalizeIdentity(currentUserID) {
		return nil, ErrProfileUpdateForbidden
	}

	user, err := s.userRepo.GetByTelegramID(ctx, nil, target)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", target, err)
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}
	key, err := generateStorageKey("avatars", ext)
	if err != nil {
		return nil, err
	}

	if _, err := s.uploader.Upload(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}
	if err := s.userRepo.UpdateAvatarKey(ctx, nil, target, key); err != nil {
		return nil, fmt.Errorf("failed to save avatar key: %w", err)
	}

	if user.AvatarKey != nil && *user.AvatarKey != "" {
		// Best effort cleanup of the replaced object.
		_ = s.uploader.Delete(ctx, *user.AvatarKey)
	}

	user.AvatarKey = &key
	populateUserAvatarURL(user, s.uploader)
	return user, nil
}

// EnsureUser returns the profile for the identity, creating a minimal row on
// first contact. Used by the login flow.
func (s *profileService) EnsureUser(ctx context.Context, telegramID string) (*models.User, error) {
	id := normalizeIdentity(telegramID)

	user, err := s.userRepo.GetByTelegramID(ctx, nil, id)
	if err == nil {
		populateUserAvatarURL(user, s.uploader)
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	user = &models.User{
		TelegramID:     id,
		Tags:           []string{},
		HackathonTeams: map[string]int{},
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		if errors.Is(err, repositories.ErrUserTelegramIDConflict) {
			// Lost the race to another login, the row exists now.
			return s.GetByTelegramID(ctx, id)
		}
		return nil, fmt.Errorf("failed to create user %s: %w", id, err)
	}
	return user, nil
}
