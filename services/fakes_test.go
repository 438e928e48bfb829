package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/itamhack/hackathon-system/models"
	"github.com/itamhack/hackathon-system/repositories"
	"github.com/itamhack/hackathon-system/storage"
)

// In-memory repositories backing the service tests. The pass-through
// transaction manager runs the body directly, so composite transitions are
// observable without a database.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	users  map[string]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User), nextID: 1}
}

func (r *fakeUserRepo) add(telegramID string) *models.User {
	user := &models.User{
		ID:             r.nextID,
		TelegramID:     telegramID,
		Tags:           []string{},
		CreatedAt:      time.Now(),
		HackathonTeams: map[string]int{},
	}
	r.nextID++
	r.users[telegramID] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	if _, ok := r.users[user.TelegramID]; ok {
		return repositories.ErrUserTelegramIDConflict
	}
	user.ID = r.nextID
	r.nextID++
	if user.HackathonTeams == nil {
		user.HackathonTeams = map[string]int{}
	}
	r.users[user.TelegramID] = user
	return nil
}

func (r *fakeUserRepo) GetByTelegramID(ctx context.Context, exec repositories.SQLExecutor, telegramID string) (*models.User, error) {
	user, ok := r.users[telegramID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	clone.HackathonTeams = make(map[string]int, len(user.HackathonTeams))
	for k, v := range user.HackathonTeams {
		clone.HackathonTeams[k] = v
	}
	return &clone, nil
}

func (r *fakeUserRepo) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.User, error) {
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, _ := r.GetByTelegramID(ctx, exec, id)
		users = append(users, user)
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	stored, ok := r.users[user.TelegramID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	stored.Username = user.Username
	stored.Fullname = user.Fullname
	stored.Description = user.Description
	stored.Role = user.Role
	stored.Tags = user.Tags
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(ctx context.Context, exec repositories.SQLExecutor, telegramID string, avatarKey string) error {
	user, ok := r.users[telegramID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.AvatarKey = &avatarKey
	return nil
}

func (r *fakeUserRepo) SetHackathonTeam(ctx context.Context, exec repositories.SQLExecutor, telegramID string, hackathonKey string, teamID int) error {
	user, ok := r.users[telegramID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.HackathonTeams[hackathonKey] = teamID
	return nil
}

func (r *fakeUserRepo) ClearHackathonTeam(ctx context.Context, exec repositories.SQLExecutor, telegramID string, hackathonKey string) error {
	user, ok := r.users[telegramID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	delete(user.HackathonTeams, hackathonKey)
	return nil
}

func (r *fakeUserRepo) ClearHackathonForAll(ctx context.Context, exec repositories.SQLExecutor, hackathonKey string) error {
	for _, user := range r.users {
		delete(user.HackathonTeams, hackathonKey)
	}
	return nil
}

func (r *fakeUserRepo) CountMembershipsForHackathon(ctx context.Context, exec repositories.SQLExecutor, hackathonKey string) (int, error) {
	count := 0
	for _, user := range r.users {
		if _, ok := user.HackathonTeams[hackathonKey]; ok {
			count++
		}
	}
	return count, nil
}

type fakeHackathonRepo struct {
	hackathons map[int]*models.Hackathon
	nextID     int
}

func newFakeHackathonRepo() *fakeHackathonRepo {
	return &fakeHackathonRepo{hackathons: make(map[int]*models.Hackathon), nextID: 1}
}

func (r *fakeHackathonRepo) add(title string) *models.Hackathon {
	hackathon := &models.Hackathon{ID: r.nextID, Title: title}
	r.nextID++
	r.hackathons[hackathon.ID] = hackathon
	return hackathon
}

func (r *fakeHackathonRepo) Create(ctx context.Context, exec repositories.SQLExecutor, hackathon *models.Hackathon) error {
	hackathon.ID = r.nextID
	r.nextID++
	r.hackathons[hackathon.ID] = hackathon
	return nil
}

func (r *fakeHackathonRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Hackathon, error) {
	hackathon, ok := r.hackathons[id]
	if !ok {
		return nil, repositories.ErrHackathonNotFound
	}
	clone := *hackathon
	return &clone, nil
}

func (r *fakeHackathonRepo) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Hackathon, error) {
	hackathons := make([]*models.Hackathon, 0, len(r.hackathons))
	for _, hackathon := range r.hackathons {
		clone := *hackathon
		hackathons = append(hackathons, &clone)
	}
	sort.Slice(hackathons, func(i, j int) bool { return hackathons[i].ID < hackathons[j].ID })
	return hackathons, nil
}

func (r *fakeHackathonRepo) Update(ctx context.Context, exec repositories.SQLExecutor, hackathon *models.Hackathon) error {
	if _, ok := r.hackathons[hackathon.ID]; !ok {
		return repositories.ErrHackathonNotFound
	}
	clone := *hackathon
	r.hackathons[hackathon.ID] = &clone
	return nil
}

func (r *fakeHackathonRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.hackathons[id]; !ok {
		return repositories.ErrHackathonNotFound
	}
	delete(r.hackathons, id)
	return nil
}

func (r *fakeHackathonRepo) UpdateParticipantsCount(ctx context.Context, exec repositories.SQLExecutor, id int, count int) error {
	hackathon, ok := r.hackathons[id]
	if !ok {
		return repositories.ErrHackathonNotFound
	}
	hackathon.ParticipantsCount = count
	return nil
}

type fakeTeamRepo struct {
	teams  map[int]*models.Team
	nextID int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team), nextID: 1}
}

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	team.ID = r.nextID
	r.nextID++
	team.CreatedAt = time.Now()
	clone := cloneTeam(team)
	r.teams[team.ID] = clone
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return cloneTeam(team), nil
}

func (r *fakeTeamRepo) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Team, error) {
	teams := make([]*models.Team, 0, len(r.teams))
	for _, team := range r.teams {
		teams = append(teams, cloneTeam(team))
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (r *fakeTeamRepo) ListByHackathon(ctx context.Context, exec repositories.SQLExecutor, hackathonID int) ([]*models.Team, error) {
	all, _ := r.List(ctx, exec)
	teams := make([]*models.Team, 0)
	for _, team := range all {
		if team.HackathonID == hackathonID {
			teams = append(teams, team)
		}
	}
	return teams, nil
}

func (r *fakeTeamRepo) GetByCaptainAndHackathon(ctx context.Context, exec repositories.SQLExecutor, captainID string, hackathonID int) (*models.Team, error) {
	for _, team := range r.teams {
		if team.CaptainID == captainID && team.HackathonID == hackathonID {
			return cloneTeam(team), nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) UpdateDetails(ctx context.Context, exec repositories.SQLExecutor, id int, title string, description *string) error {
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Title = title
	team.Description = description
	return nil
}

func (r *fakeTeamRepo) SetParticipants(ctx context.Context, exec repositories.SQLExecutor, id int, participants []string) error {
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.ParticipantsID = append([]string(nil), participants...)
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *fakeTeamRepo) DeleteByHackathon(ctx context.Context, exec repositories.SQLExecutor, hackathonID int) error {
	for id, team := range r.teams {
		if team.HackathonID == hackathonID {
			delete(r.teams, id)
		}
	}
	return nil
}

func cloneTeam(team *models.Team) *models.Team {
	clone := *team
	clone.ParticipantsID = append([]string(nil), team.ParticipantsID...)
	return &clone
}

type fakeInvitationRepo struct {
	invitations map[int]*models.TeamInvitation
	nextID      int
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[int]*models.TeamInvitation), nextID: 1}
}

func (r *fakeInvitationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, invitation *models.TeamInvitation) error {
	for _, existing := range r.invitations {
		if existing.TeamID == invitation.TeamID &&
			existing.ParticipantID == invitation.ParticipantID &&
			existing.Status == models.InvitationPending {
			return repositories.ErrInvitationPendingConflict
		}
	}
	invitation.ID = r.nextID
	r.nextID++
	invitation.CreatedAt = time.Now()
	invitation.UpdatedAt = invitation.CreatedAt
	clone := *invitation
	r.invitations[invitation.ID] = &clone
	return nil
}

func (r *fakeInvitationRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamInvitation, error) {
	invitation, ok := r.invitations[id]
	if !ok {
		return nil, repositories.ErrInvitationNotFound
	}
	clone := *invitation
	return &clone, nil
}

func (r *fakeInvitationRepo) GetPendingByTeamAndParticipant(ctx context.Context, exec repositories.SQLExecutor, teamID int, participantID string) (*models.TeamInvitation, error) {
	for _, invitation := range r.invitations {
		if invitation.TeamID == teamID &&
			invitation.ParticipantID == participantID &&
			invitation.Status == models.InvitationPending {
			clone := *invitation
			return &clone, nil
		}
	}
	return nil, repositories.ErrInvitationNotFound
}

func (r *fakeInvitationRepo) ListPendingByParticipant(ctx context.Context, exec repositories.SQLExecutor, participantID string, hackathonID int) ([]*models.TeamInvitation, error) {
	invitations := make([]*models.TeamInvitation, 0)
	for _, invitation := range r.invitations {
		if invitation.ParticipantID == participantID &&
			invitation.HackathonID == hackathonID &&
			invitation.Status == models.InvitationPending {
			clone := *invitation
			invitations = append(invitations, &clone)
		}
	}
	sort.Slice(invitations, func(i, j int) bool { return invitations[i].ID < invitations[j].ID })
	return invitations, nil
}

func (r *fakeInvitationRepo) ListByTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) ([]*models.TeamInvitation, error) {
	invitations := make([]*models.TeamInvitation, 0)
	for _, invitation := range r.invitations {
		if invitation.TeamID == teamID {
			clone := *invitation
			invitations = append(invitations, &clone)
		}
	}
	sort.Slice(invitations, func(i, j int) bool { return invitations[i].ID < invitations[j].ID })
	return invitations, nil
}

func (r *fakeInvitationRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.InvitationStatus) error {
	invitation, ok := r.invitations[id]
	if !ok {
		return repositories.ErrInvitationNotFound
	}
	if invitation.Status != models.InvitationPending {
		return repositories.ErrInvitationNotPending
	}
	invitation.Status = status
	invitation.UpdatedAt = time.Now()
	return nil
}

func (r *fakeInvitationRepo) CancelPendingByTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) error {
	for _, invitation := range r.invitations {
		if invitation.TeamID == teamID && invitation.Status == models.InvitationPending {
			invitation.Status = models.InvitationDeclined
			invitation.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *fakeInvitationRepo) DeleteByHackathon(ctx context.Context, exec repositories.SQLExecutor, hackathonID int) error {
	for id, invitation := range r.invitations {
		if invitation.HackathonID == hackathonID {
			delete(r.invitations, id)
		}
	}
	return nil
}

type fakeUploader struct {
	uploaded map[string]string
	deleted  []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(map[string]string)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.uploaded[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return fmt.Sprintf("https://cdn.test/%s", key)
}
