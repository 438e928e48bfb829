package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itamhack/hackathon-system/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound         = errors.New("team not found")
	ErrTeamHackathonInvalid = errors.New("team hackathon conflict or invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Team, error)
	ListByHackathon(ctx context.Context, exec SQLExecutor, hackathonID int) ([]*models.Team, error)
	GetByCaptainAndHackathon(ctx context.Context, exec SQLExecutor, captainID string, hackathonID int) (*models.Team, error)
	UpdateDetails(ctx context.Context, exec SQLExecutor, id int, title string, description *string) error

	// SetParticipants replaces the roster wholesale. The coordinator composes
	// the new roster in memory and flushes it in one write.
	SetParticipants(ctx context.Context, exec SQLExecutor, id int, participants []string) error

	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByHackathon(ctx context.Context, exec SQLExecutor, hackathonID int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `team_id, hackathon_id, title, description, captain_id, password, participants_id, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (hackathon_id, title, description, captain_id, password, participants_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING team_id, created_at`

	roster, err := marshalRoster(team.ParticipantsID)
	if err != nil {
		return err
	}

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		team.HackathonID,
		team.Title,
		team.Description,
		team.CaptainID,
		team.Password,
		roster,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "teams_hackathon_id_fkey" {
				return ErrTeamHackathonInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE team_id = $1`

	team, err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY created_at DESC`
	return r.queryTeams(ctx, exec, query)
}

func (r *postgresTeamRepository) ListByHackathon(ctx context.Context, exec SQLExecutor, hackathonID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE hackathon_id = $1 ORDER BY created_at DESC`
	return r.queryTeams(ctx, exec, query, hackathonID)
}

func (r *postgresTeamRepository) GetByCaptainAndHackathon(ctx context.Context, exec SQLExecutor, captainID string, hackathonID int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE captain_id = $1 AND hackathon_id = $2`

	team, err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, captainID, hackathonID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) UpdateDetails(ctx context.Context, exec SQLExecutor, id int, title string, description *string) error {
	query := `UPDATE teams SET title = $1, description = $2 WHERE team_id = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, title, description, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) SetParticipants(ctx context.Context, exec SQLExecutor, id int, participants []string) error {
	query := `UPDATE teams SET participants_id = $1 WHERE team_id = $2`

	roster, err := marshalRoster(participants)
	if err != nil {
		return err
	}

	result, err := r.getExecutor(exec).ExecContext(ctx, query, roster, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `DELETE FROM teams WHERE team_id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) DeleteByHackathon(ctx context.Context, exec SQLExecutor, hackathonID int) error {
	query := `DELETE FROM teams WHERE hackathon_id = $1`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, hackathonID)
	return err
}

func (r *postgresTeamRepository) queryTeams(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func scanTeam(row rowScanner) (*models.Team, error) {
	team := &models.Team{}
	var roster []byte

	err := row.Scan(
		&team.ID,
		&team.HackathonID,
		&team.Title,
		&team.Description,
		&team.CaptainID,
		&team.Password,
		&roster,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if team.ParticipantsID, err = unmarshalRoster(roster); err != nil {
		return nil, fmt.Errorf("failed to decode roster for team %d: %w", team.ID, err)
	}
	return team, nil
}

func marshalRoster(roster []string) ([]byte, error) {
	if roster == nil {
		roster = []string{}
	}
	return json.Marshal(roster)
}

func unmarshalRoster(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var roster []string
	if err := json.Unmarshal(raw, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}
