package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/itamhack/hackathon-system/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserTelegramIDConflict = errors.New("user telegram id conflict")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByTelegramID(ctx context.Context, exec SQLExecutor, telegramID string) (*models.User, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.User, error)
	UpdateProfile(ctx context.Context, exec SQLExecutor, user *models.User) error
	UpdateAvatarKey(ctx context.Context, exec SQLExecutor, telegramID string, avatarKey string) error

	// SetHackathonTeam records the user's single team for a hackathon in the
	// membership map. ClearHackathonTeam removes the entry.
	SetHackathonTeam(ctx context.Context, exec SQLExecutor, telegramID string, hackathonKey string, teamID int) error
	ClearHackathonTeam(ctx context.Context, exec SQLExecutor, telegramID string, hackathonKey string) error

	// ClearHackathonForAll drops the hackathon's entry from every user's
	// membership map. Used when a hackathon is deleted.
	ClearHackathonForAll(ctx context.Context, exec SQLExecutor, hackathonKey string) error

	// CountMembershipsForHackathon recomputes, from the current membership
	// maps, how many distinct users belong to a team of the hackathon.
	CountMembershipsForHackathon(ctx context.Context, exec SQLExecutor, hackathonKey string) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		INSERT INTO users (telegram_id, username, fullname, description, role, tags, hackathon_teams)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, date_registration`

	tags, err := marshalTags(user.Tags)
	if err != nil {
		return err
	}
	memberships, err := marshalMemberships(user.HackathonTeams)
	if err != nil {
		return err
	}

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		user.TelegramID,
		user.Username,
		user.Fullname,
		user.Description,
		user.Role,
		tags,
		memberships,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_telegram_id_key" {
				return ErrUserTelegramIDConflict
			}
		}
		return err
	}
	return nil
}

const userColumns = `id, telegram_id, username, fullname, description, role, tags, hackathon_teams, avatar_key, date_registration`

func (r *postgresUserRepository) GetByTelegramID(ctx context.Context, exec SQLExecutor, telegramID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	return scanUser(r.getExecutor(exec).QueryRowContext(ctx, query, telegramID))
}

func (r *postgresUserRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY date_registration ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, scanErr := scanUserRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		UPDATE users SET
			username = $1,
			fullname = $2,
			description = $3,
			role = $4,
			tags = $5
		WHERE telegram_id = $6`

	tags, err := marshalTags(user.Tags)
	if err != nil {
		return err
	}

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		user.Username,
		user.Fullname,
		user.Description,
		user.Role,
		tags,
		user.TelegramID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, exec SQLExecutor, telegramID string, avatarKey string) error {
	query := `UPDATE users SET avatar_key = $1 WHERE telegram_id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, avatarKey, telegramID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetHackathonTeam(ctx context.Context, exec SQLExecutor, telegramID string, hackathonKey string, teamID int) error {
	query := `
		UPDATE users
		SET hackathon_teams = jsonb_set(COALESCE(hackathon_teams, '{}'::jsonb), ARRAY[$1], to_jsonb($2::int))
		WHERE telegram_id = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, hackathonKey, teamID, telegramID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ClearHackathonTeam(ctx context.Context, exec SQLExecutor, telegramID string, hackathonKey string) error {
	query := `
		UPDATE users
		SET hackathon_teams = COALESCE(hackathon_teams, '{}'::jsonb) - $1
		WHERE telegram_id = $2`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, hackathonKey, telegramID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ClearHackathonForAll(ctx context.Context, exec SQLExecutor, hackathonKey string) error {
	query := `
		UPDATE users
		SET hackathon_teams = hackathon_teams - $1
		WHERE hackathon_teams ? $1`

	_, err := r.getExecutor(exec).ExecContext(ctx, query, hackathonKey)
	return err
}

func (r *postgresUserRepository) CountMembershipsForHackathon(ctx context.Context, exec SQLExecutor, hackathonKey string) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE hackathon_teams ? $1`

	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx, query, hackathonKey).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row *sql.Row) (*models.User, error) {
	user, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUserRow(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var tags, memberships []byte

	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.Fullname,
		&user.Description,
		&user.Role,
		&tags,
		&memberships,
		&user.AvatarKey,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if user.Tags, err = unmarshalTags(tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for user %s: %w", user.TelegramID, err)
	}
	if user.HackathonTeams, err = unmarshalMemberships(memberships); err != nil {
		return nil, fmt.Errorf("failed to decode memberships for user %s: %w", user.TelegramID, err)
	}
	return user, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func unmarshalTags(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func marshalMemberships(m map[string]int) ([]byte, error) {
	if m == nil {
		m = map[string]int{}
	}
	return json.Marshal(m)
}

// unmarshalMemberships canonicalizes the membership map on the way out of the
// database: keys are always the string form of the hackathon id, values are
// coerced to int whether they were stored as numbers or as strings.
func unmarshalMemberships(raw []byte) (map[string]int, error) {
	if len(raw) == 0 {
		return map[string]int{}, nil
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	memberships := make(map[string]int, len(generic))
	for key, value := range generic {
		var teamID int
		if err := json.Unmarshal(value, &teamID); err == nil {
			memberships[key] = teamID
			continue
		}
		var teamIDStr string
		if err := json.Unmarshal(value, &teamIDStr); err != nil {
			return nil, fmt.Errorf("membership value for key %q is neither int nor string", key)
		}
		teamID, err := strconv.Atoi(teamIDStr)
		if err != nil {
			return nil, fmt.Errorf("membership value for key %q is not a team id: %w", key, err)
		}
		memberships[key] = teamID
	}
	return memberships, nil
}
