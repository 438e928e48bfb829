package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/itamhack/hackathon-system/models"
	"github.com/itamhack/hackathon-system/notifications"
	"github.com/itamhack/hackathon-system/repositories"
	"github.com/itamhack/hackathon-system/storage"
	"golang.org/x/sync/errgroup"
)

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput, currentUserID string) (*TeamInfo, error)
	GetTeam(ctx context.Context, teamID int, viewerID string) (*TeamInfo, error)
	ListTeams(ctx context.Context) ([]ShortTeamInfo, error)
	ListTeamsByHackathon(ctx context.Context, hackathonID int) ([]ShortTeamInfo, error)
	UpdateTeamDetails(ctx context.Context, teamID int, input UpdateTeamInput, currentUserID string) (*TeamInfo, error)
	JoinByPassword(ctx context.Context, teamID int, password string, currentUserID string) (*TeamInfo, error)
	LeaveTeam(ctx context.Context, teamID int, currentUserID string) error
	RemoveParticipant(ctx context.Context, teamID int, participantID string, currentUserID string) error
	DeleteTeam(ctx context.Context, teamID int, currentUserID string) error
}

type CreateTeamInput struct {
	HackathonID int     `json:"hackathon_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type UpdateTeamInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// TeamInfo is the composed team view: the team row enriched with captain and
// roster profiles. Password is present only when the viewer is the captain.
type TeamInfo struct {
	TeamID       int           `json:"team_id"`
	HackathonID  int           `json:"hackathon_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Captain      *models.User  `json:"captain"`
	Participants []models.User `json:"participants"`
	Password     *string       `json:"password,omitempty"`
}

type ShortTeamInfo struct {
	TeamID            int    `json:"team_id"`
	HackathonID       int    `json:"hackathon_id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ParticipantsCount int    `json:"participants_count"`
}

type teamService struct {
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	hackathonRepo  repositories.HackathonRepository
	invitationRepo repositories.InvitationRepository
	txm            repositories.TxManager
	uploader       storage.FileUploader
	hub            *notifications.Hub
	joinCodeLength int
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	hackathonRepo repositories.HackathonRepository,
	invitationRepo repositories.InvitationRepository,
	txm repositories.TxManager,
	uploader storage.FileUploader,
	hub *notifications.Hub,
	joinCodeLength int,
) TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		hackathonRepo:  hackathonRepo,
		invitationRepo: invitationRepo,
		txm:            txm,
		uploader:       uploader,
		hub:            hub,
		joinCodeLength: joinCodeLength,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput, currentUserID string) (*TeamInfo, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTeamTitleRequired
	}

	captainID := normalizeIdentity(currentUserID)

	if _, err := s.hackathonRepo.GetByID(ctx, nil, input.HackathonID); err != nil {
		if errors.Is(err, repositories.ErrHackathonNotFound) {
			return nil, ErrHackathonNotFound
		}
		return nil, fmt.Errorf("failed to get hackathon %d: %w", input.HackathonID, err)
	}

	user, err := s.userRepo.GetByTelegramID(ctx, nil, captainID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", captainID, err)
	}
	if _, affiliated := user.TeamFor(hackathonKey(input.HackathonID)); affiliated {
		return nil, ErrUserAlreadyInTeam
	}

	_, err = s.teamRepo.GetByCaptainAndHackathon(ctx, nil, captainID, input.HackathonID)
	if err == nil {
		return nil, ErrUserAlreadyCaptain
	}
	if !errors.Is(err, repositories.ErrTeamNotFound) {
		return nil, fmt.Errorf("failed to check existing captaincy: %w", err)
	}

	password, err := generateNumericCode(s.joinCodeLength)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		HackathonID:    input.HackathonID,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		CaptainID:      captainID,
		Password:       password,
		ParticipantsID: []string{},
	}

	err = s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			if errors.Is(err, repositories.ErrTeamHackathonInvalid) {
				return ErrHackathonNotFound
			}
			return fmt.Errorf("failed to create team: %w", err)
		}
		if err := s.userRepo.SetHackathonTeam(ctx, exec, captainID, hackathonKey(team.HackathonID), team.ID); err != nil {
			return fmt.Errorf("failed to record captain membership: %w", err)
		}
		return recountParticipants(ctx, exec, s.userRepo, s.hackathonRepo, team.HackathonID)
	})
	if err != nil {
		return nil, err
	}

	return s.buildTeamInfo(ctx, team, captainID)
}

func (s *teamService) GetTeam(ctx context.Context, teamID int, viewerID string) (*TeamInfo, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return s.buildTeamInfo(ctx, team, viewerID)
}

func (s *teamService) ListTeams(ctx context.Context) ([]ShortTeamInfo, error) {
	teams, err := s.teamRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return toShortInfos(teams), nil
}

func (s *teamService) ListTeamsByHackathon(ctx context.Context, hackathonID int) ([]ShortTeamInfo, error) {
	teams, err := s.teamRepo.ListByHackathon(ctx, nil, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for hackathon %d: %w", hackathonID, err)
	}
	return toShortInfos(teams), nil
}

func (s *teamService) UpdateTeamDetails(ctx context.Context, teamID int, input UpdateTeamInput, currentUserID string) (*TeamInfo, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if normalizeIdentity(team.CaptainID) != normalizeIdentity(currentUserID) {
		return nil, ErrCaptainActionForbidden
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTeamTitleRequired
		}
		team.Title = title
	}
	if input.Description != nil {
		team.Description = input.Description
	}

	if err := s.teamRepo.UpdateDetails(ctx, nil, team.ID, team.Title, team.Description); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to update team %d: %w", team.ID, err)
	}

	return s.buildTeamInfo(ctx, team, currentUserID)
}

// JoinByPassword moves an unaffiliated participant straight into the roster
// when the supplied join code matches the team's password.
func (s *teamService) JoinByPassword(ctx context.Context, teamID int, password string, currentUserID string) (*TeamInfo, error) {
	participantID := normalizeIdentity(currentUserID)

	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.Password != password {
		return nil, ErrTeamPasswordInvalid
	}
	if normalizeIdentity(team.CaptainID) == participantID {
		return nil, ErrUserAlreadyInTeam
	}

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

	err = s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.teamRepo.GetByID(ctx, exec, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if _, present := findParticipant(current.ParticipantsID, participantID); present {
			return ErrParticipantAlreadyInRoster
		}
		roster := append(current.ParticipantsID, participantID)
		if err := s.teamRepo.SetParticipants(ctx, exec, teamID, roster); err != nil {
			return fmt.Errorf("failed to update roster: %w", err)
		}
		if err := s.userRepo.SetHackathonTeam(ctx, exec, participantID, hackathonKey(current.HackathonID), teamID); err != nil {
			return fmt.Errorf("failed to record membership: %w", err)
		}
		team = current
		team.ParticipantsID = roster
		return recountParticipants(ctx, exec, s.userRepo, s.hackathonRepo, current.HackathonID)
	})
	if err != nil {
		return nil, err
	}

	return s.buildTeamInfo(ctx, team, participantID)
}

func (s *teamService) LeaveTeam(ctx context.Context, teamID int, currentUserID string) error {
	participantID := normalizeIdentity(currentUserID)

	return s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByID(ctx, exec, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if normalizeIdentity(team.CaptainID) == participantID {
			return ErrCaptainCannotLeave
		}
		return s.detachParticipant(ctx, exec, team, participantID)
	})
}

func (s *teamService) RemoveParticipant(ctx context.Context, teamID int, participantID string, currentUserID string) error {
	target := normalizeIdentity(participantID)

	return s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByID(ctx, exec, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if normalizeIdentity(team.CaptainID) != normalizeIdentity(currentUserID) {
			return ErrCaptainActionForbidden
		}
		if normalizeIdentity(team.CaptainID) == target {
			return ErrCannotRemoveCaptain
		}
		return s.detachParticipant(ctx, exec, team, target)
	})
}

// detachParticipant removes the identity from the roster, clears the
// membership index entry and recounts, all on the caller's executor.
func (s *teamService) detachParticipant(ctx context.Context, exec repositories.SQLExecutor, team *models.Team, participantID string) error {
	idx, present := findParticipant(team.ParticipantsID, participantID)
	if !present {
		return ErrParticipantNotInTeam
	}

	roster := make([]string, 0, len(team.ParticipantsID)-1)
	roster = append(roster, team.ParticipantsID[:idx]...)
	roster = append(roster, team.ParticipantsID[idx+1:]...)

	if err := s.teamRepo.SetParticipants(ctx, exec, team.ID, roster); err != nil {
		return fmt.Errorf("failed to update roster: %w", err)
	}
	if err := s.userRepo.ClearHackathonTeam(ctx, exec, participantID, hackathonKey(team.HackathonID)); err != nil {
		return fmt.Errorf("failed to clear membership: %w", err)
	}
	return recountParticipants(ctx, exec, s.userRepo, s.hackathonRepo, team.HackathonID)
}

// DeleteTeam removes the team and everything referencing it: every pending
// invitation is declined, every membership entry cleared, the counter
// recomputed. One unit of work.
func (s *teamService) DeleteTeam(ctx context.Context, teamID int, currentUserID string) error {
	var declined []*models.TeamInvitation
	var teamTitle string

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByID(ctx, exec, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if normalizeIdentity(team.CaptainID) != normalizeIdentity(currentUserID) {
			return ErrCaptainActionForbidden
		}
		teamTitle = team.Title

		invitations, err := s.invitationRepo.ListByTeam(ctx, exec, teamID)
		if err != nil {
			return fmt.Errorf("failed to list invitations for team %d: %w", teamID, err)
		}
		for _, invitation := range invitations {
			if invitation.Status == models.InvitationPending {
				declined = append(declined, invitation)
			}
		}
		if err := s.invitationRepo.CancelPendingByTeam(ctx, exec, teamID); err != nil {
			return fmt.Errorf("failed to cancel invitations for team %d: %w", teamID, err)
		}

		for _, participantID := range team.ParticipantsID {
			if err := s.userRepo.ClearHackathonTeam(ctx, exec, normalizeIdentity(participantID), hackathonKey(team.HackathonID)); err != nil {
				return fmt.Errorf("failed to clear membership for %s: %w", participantID, err)
			}
		}
		if err := s.userRepo.ClearHackathonTeam(ctx, exec, normalizeIdentity(team.CaptainID), hackathonKey(team.HackathonID)); err != nil {
			return fmt.Errorf("failed to clear captain membership: %w", err)
		}

		if err := s.teamRepo.Delete(ctx, exec, teamID); err != nil {
			return fmt.Errorf("failed to delete team %d: %w", teamID, err)
		}
		return recountParticipants(ctx, exec, s.userRepo, s.hackathonRepo, team.HackathonID)
	})
	if err != nil {
		return err
	}

	if s.hub != nil {
		for _, invitation := range declined {
			invitation.Status = models.InvitationDeclined
			s.hub.Notify(normalizeIdentity(invitation.ParticipantID), notifications.Message{
				Type:       notifications.EventInvitationDeclined,
				TeamTitle:  teamTitle,
				Invitation: invitation,
			})
		}
	}
	return nil
}

func (s *teamService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}

// buildTeamInfo enriches a team row with captain and roster profiles. The
// profile lookups are independent, so they run concurrently.
func (s *teamService) buildTeamInfo(ctx context.Context, team *models.Team, viewerID string) (*TeamInfo, error) {
	info := &TeamInfo{
		TeamID:       team.ID,
		HackathonID:  team.HackathonID,
		Title:        team.Title,
		Description:  derefString(team.Description),
		Participants: make([]models.User, len(team.ParticipantsID)),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		captain, err := s.userRepo.GetByTelegramID(gCtx, nil, normalizeIdentity(team.CaptainID))
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get captain %s: %w", team.CaptainID, err)
		}
		populateUserAvatarURL(captain, s.uploader)
		info.Captain = captain
		return nil
	})

	for i, participantID := range team.ParticipantsID {
		i, participantID := i, participantID
		g.Go(func() error {
			participant, err := s.userRepo.GetByTelegramID(gCtx, nil, normalizeIdentity(participantID))
			if err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					// Roster entries for vanished users are skipped, not fatal.
					return nil
				}
				return fmt.Errorf("failed to get participant %s: %w", participantID, err)
			}
			populateUserAvatarURL(participant, s.uploader)
			info.Participants[i] = *participant
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Drop slots left empty by vanished users.
	participants := info.Participants[:0]
	for _, participant := range info.Participants {
		if participant.TelegramID != "" {
			participants = append(participants, participant)
		}
	}
	info.Participants = participants

	if normalizeIdentity(viewerID) == normalizeIdentity(team.CaptainID) {
		password := team.Password
		info.Password = &password
	}
	return info, nil
}

func toShortInfos(teams []*models.Team) []ShortTeamInfo {
	infos := make([]ShortTeamInfo, 0, len(teams))
	for _, team := range teams {
		infos = append(infos, ShortTeamInfo{
			TeamID:            team.ID,
			HackathonID:       team.HackathonID,
			Title:             team.Title,
			Description:       derefString(team.Description),
			ParticipantsCount: len(team.ParticipantsID) + 1, // roster plus captain
		})
	}
	return infos
}
