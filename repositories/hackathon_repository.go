package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/itamhack/hackathon-system/models"
)

var ErrHackathonNotFound = errors.New("hackathon not found")

type HackathonRepository interface {
	Create(ctx context.Context, exec SQLExecutor, hackathon *models.Hackathon) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Hackathon, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Hackathon, error)
	Update(ctx context.Context, exec SQLExecutor, hackathon *models.Hackathon) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	UpdateParticipantsCount(ctx context.Context, exec SQLExecutor, id int, count int) error
}

type postgresHackathonRepository struct {
	db *sql.DB
}

func NewPostgresHackathonRepository(db *sql.DB) HackathonRepository {
	return &postgresHackathonRepository{db: db}
}

func (r *postgresHackathonRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const hackathonColumns = `hack_id, title, description, event_date, start_date, end_date, location, participants_count, max_participants, pic_key`

func (r *postgresHackathonRepository) Create(ctx context.Context, exec SQLExecutor, hackathon *models.Hackathon) error {
	query := `
		INSERT INTO hackathons (title, description, event_date, start_date, end_date, location, participants_count, max_participants, pic_key)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
		RETURNING hack_id`

	return r.getExecutor(exec).QueryRowContext(ctx, query,
		hackathon.Title,
		hackathon.Description,
		hackathon.EventDate,
		hackathon.StartDate,
		hackathon.EndDate,
		hackathon.Location,
		hackathon.MaxParticipants,
		hackathon.PicKey,
	).Scan(&hackathon.ID)
}

func (r *postgresHackathonRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Hackathon, error) {
	query := `SELECT ` + hackathonColumns + ` FROM hackathons WHERE hack_id = $1`

	hackathon := &models.Hackathon{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&hackathon.ID,
		&hackathon.Title,
		&hackathon.Description,
		&hackathon.EventDate,
		&hackathon.StartDate,
		&hackathon.EndDate,
		&hackathon.Location,
		&hackathon.ParticipantsCount,
		&hackathon.MaxParticipants,
		&hackathon.PicKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHackathonNotFound
		}
		return nil, err
	}
	return hackathon, nil
}

func (r *postgresHackathonRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Hackathon, error) {
	query := `SELECT ` + hackathonColumns + ` FROM hackathons ORDER BY start_date ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hackathons := make([]*models.Hackathon, 0)
	for rows.Next() {
		hackathon := &models.Hackathon{}
		scanErr := rows.Scan(
			&hackathon.ID,
			&hackathon.Title,
			&hackathon.Description,
			&hackathon.EventDate,
			&hackathon.StartDate,
			&hackathon.EndDate,
			&hackathon.Location,
			&hackathon.ParticipantsCount,
			&hackathon.MaxParticipants,
			&hackathon.PicKey,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		hackathons = append(hackathons, hackathon)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return hackathons, nil
}

func (r *postgresHackathonRepository) Update(ctx context.Context, exec SQLExecutor, hackathon *models.Hackathon) error {
	query := `
		UPDATE hackathons SET
			title = $1,
			description = $2,
			event_date = $3,
			start_date = $4,
			end_date = $5,
			location = $6,
			max_participants = $7,
			pic_key = $8
		WHERE hack_id = $9`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		hackathon.Title,
		hackathon.Description,
		hackathon.EventDate,
		hackathon.StartDate,
		hackathon.EndDate,
		hackathon.Location,
		hackathon.MaxParticipants,
		hackathon.PicKey,
		hackathon.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrHackathonNotFound)
}

func (r *postgresHackathonRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `DELETE FROM hackathons WHERE hack_id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrHackathonNotFound)
}

func (r *postgresHackathonRepository) UpdateParticipantsCount(ctx context.Context, exec SQLExecutor, id int, count int) error {
	query := `UPDATE hackathons SET participants_count = $1 WHERE hack_id = $2`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, count, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrHackathonNotFound)
}
