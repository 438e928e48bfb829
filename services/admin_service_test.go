package services

import (
	"context"
	"testing"
	"time"

	"github.com/itamhack/hackathon-system/models"
	"github.com/itamhack/hackathon-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdminRepo struct {
	admins map[string]*models.Admin
	nextID int
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: make(map[string]*models.Admin), nextID: 1}
}

func (r *fakeAdminRepo) Create(ctx context.Context, exec repositories.SQLExecutor, admin *models.Admin) error {
	if _, ok := r.admins[admin.Login]; ok {
		return repositories.ErrAdminLoginConflict
	}
	admin.ID = r.nextID
	r.nextID++
	clone := *admin
	r.admins[admin.Login] = &clone
	return nil
}

func (r *fakeAdminRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Admin, error) {
	for _, admin := range r.admins {
		if admin.ID == id {
			clone := *admin
			return &clone, nil
		}
	}
	return nil, repositories.ErrAdminNotFound
}

func (r *fakeAdminRepo) GetByLogin(ctx context.Context, exec repositories.SQLExecutor, login string) (*models.Admin, error) {
	admin, ok := r.admins[login]
	if !ok {
		return nil, repositories.ErrAdminNotFound
	}
	clone := *admin
	return &clone, nil
}

func newAdminFixture() (*fakeAdminRepo, AdminService) {
	admins := newFakeAdminRepo()
	auth := NewAuthService(newFakeCodeStore(), NewProfileService(newFakeUserRepo(), newFakeUploader()), "test-secret", time.Hour, time.Minute, 6)
	return admins, NewAdminService(admins, auth)
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("bootstrap then login", func(t *testing.T) {
		admins, service := newAdminFixture()

		require.NoError(t, service.EnsureBootstrapAdmin(ctx, "root", "hunter22"))
		require.Len(t, admins.admins, 1)

		token, admin, err := service.Login(ctx, "root", "hunter22")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "root", admin.Login)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, service := newAdminFixture()
		require.NoError(t, service.EnsureBootstrapAdmin(ctx, "root", "hunter22"))

		_, _, err := service.Login(ctx, "root", "wrong")
		assert.ErrorIs(t, err, ErrInvalidAdminCredentials)
	})

	t.Run("unknown login", func(t *testing.T) {
		_, service := newAdminFixture()
		_, _, err := service.Login(ctx, "ghost", "whatever")
		assert.ErrorIs(t, err, ErrInvalidAdminCredentials)
	})

	t.Run("bootstrap is idempotent", func(t *testing.T) {
		admins, service := newAdminFixture()

		require.NoError(t, service.EnsureBootstrapAdmin(ctx, "root", "hunter22"))
		first := admins.admins["root"].PasswordHash

		require.NoError(t, service.EnsureBootstrapAdmin(ctx, "root", "different"))
		assert.Equal(t, first, admins.admins["root"].PasswordHash, "existing account must not be overwritten")
	})
}
