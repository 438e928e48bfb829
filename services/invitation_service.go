package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/itamhack/hackathon-system/models"
	"github.com/itamhack/hackathon-system/notifications"
	"github.com/itamhack/hackathon-system/repositories"
)

type InvitationService interface {
	InviteParticipant(ctx context.Context, teamID int, participantID string, currentUserID string) (*models.TeamInvitation, error)
	RequestToJoin(ctx context.Context, teamID int, currentUserID string) (*models.TeamInvitation, error)
	AcceptInvitation(ctx context.Context, invitationID int, currentUserID string) (*models.TeamInvitation, error)
	ApproveRequest(ctx context.Context, invitationID int, currentUserID string) (*models.TeamInvitation, error)
	DeclineInvitation(ctx context.Context, invitationID int, currentUserID string) (*models.TeamInvitation, error)
	ListPendingForParticipant(ctx context.Context, participantID string, hackathonID int) ([]*models.TeamInvitation, error)
	ListForTeam(ctx context.Context, teamID int, currentUserID string) ([]*models.TeamInvitation, error)
}

type invitationService struct {
	invitationRepo repositories.InvitationRepository
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	hackathonRepo  repositories.HackathonRepository
	txm            repositories.TxManager
	hub            *notifications.Hub
}

func NewInvitationService(
	invitationRepo repositories.InvitationRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	hackathonRepo repositories.HackathonRepository,
	txm repositories.TxManager,
	hub *notifications.Hub,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		hackathonRepo:  hackathonRepo,
		txm:            txm,
		hub:            hub,
	}
}

// InviteParticipant creates a captain-initiated pending invitation. The
// invited participant has to accept before any membership changes.
func (s *invitationService) InviteParticipant(ctx context.Context, teamID int, participantID string, currentUserID string) (*models.TeamInvitation, error) {
	target := normalizeIdentity(participantID)

	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if normalizeIdentity(team.CaptainID) != normalizeIdentity(currentUserID) {
		return nil, ErrCaptainActionForbidden
	}

	invitation, err := s.createPending(ctx, team, target, models.RequestedByCaptain)
	if err != nil {
		return nil, err
	}

	s.notify(target, notifications.EventInvitationCreated, team.Title, invitation)
	return invitation, nil
}

// RequestToJoin creates a participant-initiated pending invitation addressed
// to the team's captain.
func (s *invitationService) RequestToJoin(ctx context.Context, teamID int, currentUserID string) (*models.TeamInvitation, error) {
	requester := normalizeIdentity(currentUserID)

	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if normalizeIdentity(team.CaptainID) == requester {
		return nil, ErrUserAlreadyInTeam
	}

	invitation, err := s.createPending(ctx, team, requester, models.RequestedByParticipant)
	if err != nil {
		return nil, err
	}

	s.notify(normalizeIdentity(team.CaptainID), notifications.EventInvitationCreated, team.Title, invitation)
	return invitation, nil
}

func (s *invitationService) createPending(ctx context.Context, team *models.Team, participantID string, requestedBy models.RequestedBy) (*models.TeamInvitation, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, nil, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", participantID, err)
	}
	if _, affiliated := user.TeamFor(hackathonKey(team.HackathonID)); affiliated {
		return nil, ErrUserAlreadyInTeam
	}
	if _, present := findParticipant(team.ParticipantsID, participantID); present {
		return nil, ErrParticipantAlreadyInRoster
	}

	_, err = s.invitationRepo.GetPendingByTeamAndParticipant(ctx, nil, team.ID, participantID)
	if err == nil {
		return nil, ErrInvitationAlreadyPending
	}
	if !errors.Is(err, repositories.ErrInvitationNotFound) {
		return nil, fmt.Errorf("failed to check pending invitation: %w", err)
	}

	invitation := &models.TeamInvitation{
		TeamID:        team.ID,
		HackathonID:   team.HackathonID,
		CaptainID:     normalizeIdentity(team.CaptainID),
		ParticipantID: participantID,
		Status:        models.InvitationPending,
		RequestedBy:   requestedBy,
	}
	if err := s.invitationRepo.Create(ctx, nil, invitation); err != nil {
		// The partial unique index closes the check-then-create race.
		if errors.Is(err, repositories.ErrInvitationPendingConflict) {
			return nil, ErrInvitationAlreadyPending
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	return invitation, nil
}

// AcceptInvitation lets the invited participant resolve a captain-initiated
// invitation, joining the roster.
func (s *invitationService) AcceptInvitation(ctx context.Context, invitationID int, currentUserID string) (*models.TeamInvitation, error) {
	caller := normalizeIdentity(currentUserID)
	return s.resolve(ctx, invitationID, func(invitation *models.TeamInvitation) error {
		if invitation.RequestedBy != models.RequestedByCaptain {
			return ErrInvitationActionForbidden
		}
		if normalizeIdentity(invitation.ParticipantID) != caller {
			return ErrInvitationActionForbidden
		}
		return nil
	})
}

// ApproveRequest lets the captain resolve a participant-initiated request,
// admitting the requester to the roster.
func (s *invitationService) ApproveRequest(ctx context.Context, invitationID int, currentUserID string) (*models.TeamInvitation, error) {
	caller := normalizeIdentity(currentUserID)
	return s.resolve(ctx, invitationID, func(invitation *models.TeamInvitation) error {
		if invitation.RequestedBy != models.RequestedByParticipant {
			return ErrInvitationActionForbidden
		}
		if normalizeIdentity(invitation.CaptainID) != caller {
			return ErrInvitationActionForbidden
		}
		return nil
	})
}

// resolve accepts a pending invitation: participant joins the roster, the
// membership index and counter are brought in line, the invitation flips to
// accepted. If the participant picked up another team since the invitation
// was issued, the invitation is auto-declined instead. The decline has to
// stick even though the operation reports a conflict, so the transaction
// commits and the conflict is raised afterwards.
func (s *invitationService) resolve(ctx context.Context, invitationID int, authorize func(*models.TeamInvitation) error) (*models.TeamInvitation, error) {
	var invitation *models.TeamInvitation
	var teamTitle string
	autoDeclined := false

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		invitation, err = s.invitationRepo.GetByID(ctx, exec, invitationID)
		if err != nil {
			if errors.Is(err, repositories.ErrInvitationNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}
		if invitation.Status != models.InvitationPending {
			return ErrInvitationNotPending
		}
		if err := authorize(invitation); err != nil {
			return err
		}

		team, err := s.teamRepo.GetByID(ctx, exec, invitation.TeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		teamTitle = team.Title

		participantID := normalizeIdentity(invitation.ParticipantID)
		user, err := s.userRepo.GetByTelegramID(ctx, exec, participantID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if _, affiliated := user.TeamFor(hackathonKey(team.HackathonID)); affiliated {
			if err := s.invitationRepo.UpdateStatus(ctx, exec, invitationID, models.InvitationDeclined); err != nil {
				return fmt.Errorf("failed to decline stale invitation: %w", err)
			}
			invitation.Status = models.InvitationDeclined
			autoDeclined = true
			return nil
		}

		if _, present := findParticipant(team.ParticipantsID, participantID); !present {
			roster := append(team.ParticipantsID, participantID)
			if err := s.teamRepo.SetParticipants(ctx, exec, team.ID, roster); err != nil {
				return fmt.Errorf("failed to update roster: %w", err)
			}
		}
		if err := s.userRepo.SetHackathonTeam(ctx, exec, participantID, hackathonKey(team.HackathonID), team.ID); err != nil {
			return fmt.Errorf("failed to record membership: %w", err)
		}
		if err := s.invitationRepo.UpdateStatus(ctx, exec, invitationID, models.InvitationAccepted); err != nil {
			if errors.Is(err, repositories.ErrInvitationNotPending) {
				return ErrInvitationNotPending
			}
			return fmt.Errorf("failed to accept invitation: %w", err)
		}
		invitation.Status = models.InvitationAccepted
		return recountParticipants(ctx, exec, s.userRepo, s.hackathonRepo, team.HackathonID)
	})
	if err != nil {
		return nil, err
	}
	if autoDeclined {
		return nil, ErrUserAlreadyInTeam
	}

	s.notifyResolution(invitation, teamTitle, notifications.EventInvitationAccepted)
	return invitation, nil
}

// DeclineInvitation resolves a pending invitation as declined. The captain
// may decline either kind; the participant may decline only invitations
// addressed to them.
func (s *invitationService) DeclineInvitation(ctx context.Context, invitationID int, currentUserID string) (*models.TeamInvitation, error) {
	caller := normalizeIdentity(currentUserID)

	var invitation *models.TeamInvitation
	var teamTitle string

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		invitation, err = s.invitationRepo.GetByID(ctx, exec, invitationID)
		if err != nil {
			if errors.Is(err, repositories.ErrInvitationNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}
		if invitation.Status != models.InvitationPending {
			return ErrInvitationNotPending
		}

		isCaptain := normalizeIdentity(invitation.CaptainID) == caller
		isInvitee := invitation.RequestedBy == models.RequestedByCaptain &&
			normalizeIdentity(invitation.ParticipantID) == caller
		if !isCaptain && !isInvitee {
			return ErrInvitationActionForbidden
		}

		if team, err := s.teamRepo.GetByID(ctx, exec, invitation.TeamID); err == nil {
			teamTitle = team.Title
		}

		if err := s.invitationRepo.UpdateStatus(ctx, exec, invitationID, models.InvitationDeclined); err != nil {
			if errors.Is(err, repositories.ErrInvitationNotPending) {
				return ErrInvitationNotPending
			}
			return fmt.Errorf("failed to decline invitation: %w", err)
		}
		invitation.Status = models.InvitationDeclined
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyResolution(invitation, teamTitle, notifications.EventInvitationDeclined)
	return invitation, nil
}

func (s *invitationService) ListPendingForParticipant(ctx context.Context, participantID string, hackathonID int) ([]*models.TeamInvitation, error) {
	invitations, err := s.invitationRepo.ListPendingByParticipant(ctx, nil, normalizeIdentity(participantID), hackathonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invitations: %w", err)
	}
	return invitations, nil
}

func (s *invitationService) ListForTeam(ctx context.Context, teamID int, currentUserID string) ([]*models.TeamInvitation, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if normalizeIdentity(team.CaptainID) != normalizeIdentity(currentUserID) {
		return nil, ErrCaptainActionForbidden
	}

	invitations, err := s.invitationRepo.ListByTeam(ctx, nil, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations for team %d: %w", teamID, err)
	}
	return invitations, nil
}

func (s *invitationService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}

// notifyResolution tells the counterparty about the outcome: accepted and
// declined invitations go back to whoever did not perform the action.
func (s *invitationService) notifyResolution(invitation *models.TeamInvitation, teamTitle string, event string) {
	if invitation.RequestedBy == models.RequestedByCaptain {
		s.notify(normalizeIdentity(invitation.CaptainID), event, teamTitle, invitation)
	} else {
		s.notify(normalizeIdentity(invitation.ParticipantID), event, teamTitle, invitation)
	}
}

func (s *invitationService) notify(userID string, event string, teamTitle string, invitation *models.TeamInvitation) {
	if s.hub == nil {
		return
	}
	s.hub.Notify(userID, notifications.Message{
		Type:       event,
		TeamTitle:  teamTitle,
		Invitation: invitation,
	})
}
