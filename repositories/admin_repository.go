package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/itamhack/hackathon-system/models"
	"github.com/lib/pq"
)

var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrAdminLoginConflict = errors.New("admin login conflict")
)

type AdminRepository interface {
	Create(ctx context.Context, exec SQLExecutor, admin *models.Admin) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Admin, error)
	GetByLogin(ctx context.Context, exec SQLExecutor, login string) (*models.Admin, error)
}

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAdminRepository) Create(ctx context.Context, exec SQLExecutor, admin *models.Admin) error {
	query := `
		INSERT INTO admins (login, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		admin.Login,
		admin.PasswordHash,
	).Scan(&admin.ID, &admin.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "admins_login_key" {
				return ErrAdminLoginConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresAdminRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Admin, error) {
	query := `SELECT id, login, password_hash, created_at FROM admins WHERE id = $1`
	return r.scanAdmin(ctx, exec, query, id)
}

func (r *postgresAdminRepository) GetByLogin(ctx context.Context, exec SQLExecutor, login string) (*models.Admin, error) {
	query := `SELECT id, login, password_hash, created_at FROM admins WHERE login = $1`
	return r.scanAdmin(ctx, exec, query, login)
}

func (r *postgresAdminRepository) scanAdmin(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Admin, error) {
	admin := &models.Admin{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(
		&admin.ID,
		&admin.Login,
		&admin.PasswordHash,
		&admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}
