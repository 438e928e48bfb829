package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itamhack/hackathon-system/models"
	"github.com/itamhack/hackathon-system/repositories"
	"github.com/itamhack/hackathon-system/storage"
)

type HackathonService interface {
	ListHackathons(ctx context.Context) ([]*models.Hackathon, error)
	GetHackathon(ctx context.Context, id int) (*models.Hackathon, error)
	CreateHackathon(ctx context.Context, input HackathonInput) (*models.Hackathon, error)
	UpdateHackathon(ctx context.Context, id int, input HackathonInput) (*models.Hackathon, error)
	DeleteHackathon(ctx context.Context, id int) error
}

type HackathonInput struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	EventDate       *time.Time `json:"event_date"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Location        *string    `json:"location"`
	MaxParticipants *int       `json:"max_participants"`

	// Pic is an optional base64-encoded image payload.
	Pic            *string `json:"pic"`
	PicContentType *string `json:"pic_content_type"`
}

type hackathonService struct {
	hackathonRepo  repositories.HackathonRepository
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	invitationRepo repositories.InvitationRepository
	txm            repositories.TxManager
	uploader       storage.FileUploader
}

func NewHackathonService(
	hackathonRepo repositories.HackathonRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	invitationRepo repositories.InvitationRepository,
	txm repositories.TxManager,
	uploader storage.FileUploader,
) HackathonService {
	return &hackathonService{
		hackathonRepo:  hackathonRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		txm:            txm,
		uploader:       uploader,
	}
}

func (s *hackathonService) ListHackathons(ctx context.Context) ([]*models.Hackathon, error) {
	hackathons, err := s.hackathonRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list hackathons: %w", err)
	}
	for _, hackathon := range hackathons {
		populateHackathonPicURL(hackathon, s.uploader)
	}
	return hackathons, nil
}

func (s *hackathonService) GetHackathon(ctx context.Context, id int) (*models.Hackathon, error) {
	hackathon, err := s.hackathonRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrHackathonNotFound) {
			return nil, ErrHackathonNotFound
		}
		return nil, fmt.Errorf("failed to get hackathon %d: %w", id, err)
	}
	populateHackathonPicURL(hackathon, s.uploader)
	return hackathon, nil
}

func (s *hackathonService) CreateHackathon(ctx context.Context, input HackathonInput) (*models.Hackathon, error) {
	if err := validateHackathonInput(input); err != nil {
		return nil, err
	}

	hackathon := &models.Hackathon{
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Location:        input.Location,
		MaxParticipants: input.MaxParticipants,
	}
	if input.EventDate != nil {
		hackathon.EventDate = *input.EventDate
	}
	if input.StartDate != nil {
		hackathon.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		hackathon.EndDate = *input.EndDate
	}

	if input.Pic != nil {
		key, err := s.uploadPic(ctx, *input.Pic, input.PicContentType)
		if err != nil {
			return nil, err
		}
		hackathon.PicKey = &key
	}

	if err := s.hackathonRepo.Create(ctx, nil, hackathon); err != nil {
		return nil, fmt.Errorf("failed to create hackathon: %w", err)
	}

	populateHackathonPicURL(hackathon, s.uploader)
	return hackathon, nil
}

func (s *hackathonService) UpdateHackathon(ctx context.Context, id int, input HackathonInput) (*models.Hackathon, error) {
	hackathon, err := s.hackathonRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrHackathonNotFound) {
			return nil, ErrHackathonNotFound
		}
		return nil, fmt.Errorf("failed to get hackathon %d: %w", id, err)
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		hackathon.Title = title
	}
	if input.Description != "" {
		hackathon.Description = input.Description
	}
	if input.EventDate != nil {
		hackathon.EventDate = *input.EventDate
	}
	if input.StartDate != nil {
		hackathon.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		hackathon.EndDate = *input.EndDate
	}
	if input.Location != nil {
		hackathon.Location = input.Location
	}
	if input.MaxParticipants != nil {
		hackathon.MaxParticipants = input.MaxParticipants
	}
	if !hackathon.StartDate.IsZero() && !hackathon.EndDate.IsZero() && hackathon.EndDate.Before(hackathon.StartDate) {
		return nil, ErrHackathonInvalidDates
	}

	if input.Pic != nil {
		oldKey := hackathon.PicKey
		key, err := s.uploadPic(ctx, *input.Pic, input.PicContentType)
		if err != nil {
			return nil, err
		}
		hackathon.PicKey = &key
		if oldKey != nil && *oldKey != "" {
			_ = s.uploader.Delete(ctx, *oldKey)
		}
	}

	if err := s.hackathonRepo.Update(ctx, nil, hackathon); err != nil {
		if errors.Is(err, repositories.ErrHackathonNotFound) {
			return nil, ErrHackathonNotFound
		}
		return nil, fmt.Errorf("failed to update hackathon %d: %w", id, err)
	}

	populateHackathonPicURL(hackathon, s.uploader)
	return hackathon, nil
}

// DeleteHackathon removes the hackathon together with its teams, their
// invitations and every membership entry pointing at it. One unit of work.
func (s *hackathonService) DeleteHackathon(ctx context.Context, id int) error {
	var picKey *string

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		hackathon, err := s.hackathonRepo.GetByID(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrHackathonNotFound) {
				return ErrHackathonNotFound
			}
			return err
		}
		picKey = hackathon.PicKey

		if err := s.invitationRepo.DeleteByHackathon(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete invitations for hackathon %d: %w", id, err)
		}
		if err := s.teamRepo.DeleteByHackathon(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete teams for hackathon %d: %w", id, err)
		}
		if err := s.userRepo.ClearHackathonForAll(ctx, exec, hackathonKey(id)); err != nil {
			return fmt.Errorf("failed to clear memberships for hackathon %d: %w", id, err)
		}
		if err := s.hackathonRepo.Delete(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete hackathon %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if picKey != nil && *picKey != "" {
		_ = s.uploader.Delete(ctx, *picKey)
	}
	return nil
}

func (s *hackathonService) uploadPic(ctx context.Context, encoded string, contentType *string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrUnsupportedImageType
	}

	ct := "image/jpeg"
	if contentType != nil && *contentType != "" {
		ct = *contentType
	}
	ext, err := extensionForContentType(ct)
	if err != nil {
		return "", err
	}
	key, err := generateStorageKey("hackathons", ext)
	if err != nil {
		return "", err
	}
	if _, err := s.uploader.Upload(ctx, key, ct, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload hackathon image: %w", err)
	}
	return key, nil
}

func validateHackathonInput(input HackathonInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrHackathonTitleRequired
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return ErrHackathonInvalidDates
	}
	return nil
}
