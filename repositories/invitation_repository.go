package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/itamhack/hackathon-system/models"
	"github.com/lib/pq"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationPendingConflict is returned when a pending invitation for
	// the same (team, participant) pair already exists. Backed by a partial
	// unique index on (team_id, participant_id) WHERE status = 'pending', so
	// the guarantee holds under concurrent creation as well.
	ErrInvitationPendingConflict = errors.New("pending invitation already exists for this team and participant")

	// ErrInvitationNotPending is returned by UpdateStatus when the invitation
	// is already in a terminal state. Terminal states are immutable.
	ErrInvitationNotPending = errors.New("invitation is not pending")
)

type InvitationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, invitation *models.TeamInvitation) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamInvitation, error)
	GetPendingByTeamAndParticipant(ctx context.Context, exec SQLExecutor, teamID int, participantID string) (*models.TeamInvitation, error)
	ListPendingByParticipant(ctx context.Context, exec SQLExecutor, participantID string, hackathonID int) ([]*models.TeamInvitation, error)
	ListByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.TeamInvitation, error)

	// UpdateStatus transitions a pending invitation to the given status. The
	// pending guard runs in the same statement, so a second resolution of the
	// same invitation fails with ErrInvitationNotPending.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.InvitationStatus) error

	// CancelPendingByTeam declines every pending invitation of the team.
	// Used when the team is deleted.
	CancelPendingByTeam(ctx context.Context, exec SQLExecutor, teamID int) error

	DeleteByHackathon(ctx context.Context, exec SQLExecutor, hackathonID int) error
}

type postgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) InvitationRepository {
	return &postgresInvitationRepository{db: db}
}

func (r *postgresInvitationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const invitationColumns = `invitation_id, team_id, hackathon_id, captain_id, participant_id, status, requested_by, created_at, updated_at`

func (r *postgresInvitationRepository) Create(ctx context.Context, exec SQLExecutor, invitation *models.TeamInvitation) error {
	query := `
		INSERT INTO team_invitations (team_id, hackathon_id, captain_id, participant_id, status, requested_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING invitation_id, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		invitation.TeamID,
		invitation.HackathonID,
		invitation.CaptainID,
		invitation.ParticipantID,
		invitation.Status,
		invitation.RequestedBy,
	).Scan(&invitation.ID, &invitation.CreatedAt, &invitation.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "team_invitations_pending_key" {
				return ErrInvitationPendingConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresInvitationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM team_invitations WHERE invitation_id = $1`

	invitation, err := scanInvitation(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return invitation, nil
}

func (r *postgresInvitationRepository) GetPendingByTeamAndParticipant(ctx context.Context, exec SQLExecutor, teamID int, participantID string) (*models.TeamInvitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM team_invitations
		WHERE team_id = $1 AND participant_id = $2 AND status = 'pending'`

	invitation, err := scanInvitation(r.getExecutor(exec).QueryRowContext(ctx, query, teamID, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return invitation, nil
}

func (r *postgresInvitationRepository) ListPendingByParticipant(ctx context.Context, exec SQLExecutor, participantID string, hackathonID int) ([]*models.TeamInvitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM team_invitations
		WHERE participant_id = $1 AND hackathon_id = $2 AND status = 'pending'
		ORDER BY created_at DESC`
	return r.queryInvitations(ctx, exec, query, participantID, hackathonID)
}

func (r *postgresInvitationRepository) ListByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.TeamInvitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM team_invitations
		WHERE team_id = $1
		ORDER BY created_at DESC`
	return r.queryInvitations(ctx, exec, query, teamID)
}

func (r *postgresInvitationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.InvitationStatus) error {
	query := `
		UPDATE team_invitations
		SET status = $1, updated_at = NOW()
		WHERE invitation_id = $2 AND status = 'pending'`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInvitationNotPending)
}

func (r *postgresInvitationRepository) CancelPendingByTeam(ctx context.Context, exec SQLExecutor, teamID int) error {
	query := `
		UPDATE team_invitations
		SET status = 'declined', updated_at = NOW()
		WHERE team_id = $1 AND status = 'pending'`

	_, err := r.getExecutor(exec).ExecContext(ctx, query, teamID)
	return err
}

func (r *postgresInvitationRepository) DeleteByHackathon(ctx context.Context, exec SQLExecutor, hackathonID int) error {
	query := `DELETE FROM team_invitations WHERE hackathon_id = $1`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, hackathonID)
	return err
}

func (r *postgresInvitationRepository) queryInvitations(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.TeamInvitation, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]*models.TeamInvitation, 0)
	for rows.Next() {
		invitation, scanErr := scanInvitation(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		invitations = append(invitations, invitation)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}

func scanInvitation(row rowScanner) (*models.TeamInvitation, error) {
	invitation := &models.TeamInvitation{}
	err := row.Scan(
		&invitation.ID,
		&invitation.TeamID,
		&invitation.HackathonID,
		&invitation.CaptainID,
		&invitation.ParticipantID,
		&invitation.Status,
		&invitation.RequestedBy,
		&invitation.CreatedAt,
		&invitation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return invitation, nil
}
