package services

import (
	"context"
	"testing"
	"time"

	"github.com/itamhack/hackathon-system/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCodeStore struct {
	codes map[string]string
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]string)}
}

func (s *fakeCodeStore) Save(ctx context.Context, code string, telegramID string, ttl time.Duration) error {
	s.codes[code] = telegramID
	return nil
}

func (s *fakeCodeStore) Consume(ctx context.Context, code string) (string, error) {
	telegramID, ok := s.codes[code]
	if !ok {
		return "", cache.ErrCodeNotFound
	}
	delete(s.codes, code)
	return telegramID, nil
}

func newAuthFixture() (*fakeCodeStore, *fakeUserRepo, AuthService) {
	codeStore := newFakeCodeStore()
	users := newFakeUserRepo()
	profiles := NewProfileService(users, newFakeUploader())
	auth := NewAuthService(codeStore, profiles, "test-secret", time.Hour, 5*time.Minute, 6)
	return codeStore, users, auth
}

func TestLoginByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("issued code logs in and creates the profile", func(t *testing.T) {
		codeStore, users, auth := newAuthFixture()

		code, err := auth.IssueLoginCode(ctx, " 12345 ")
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.Equal(t, "12345", codeStore.codes[code])

		token, user, err := auth.LoginByCode(ctx, code)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "12345", user.TelegramID)

		_, err = users.GetByTelegramID(ctx, nil, "12345")
		assert.NoError(t, err)
	})

	t.Run("code is single use", func(t *testing.T) {
		_, _, auth := newAuthFixture()

		code, err := auth.IssueLoginCode(ctx, "12345")
		require.NoError(t, err)

		_, _, err = auth.LoginByCode(ctx, code)
		require.NoError(t, err)
		_, _, err = auth.LoginByCode(ctx, code)
		assert.ErrorIs(t, err, ErrLoginCodeInvalid)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, _, auth := newAuthFixture()
		_, _, err := auth.LoginByCode(ctx, "000000")
		assert.ErrorIs(t, err, ErrLoginCodeInvalid)
	})

	t.Run("existing profile is reused", func(t *testing.T) {
		_, users, auth := newAuthFixture()
		existing := users.add("12345")
		username := "crabby"
		existing.Username = &username

		code, err := auth.IssueLoginCode(ctx, "12345")
		require.NoError(t, err)

		_, user, err := auth.LoginByCode(ctx, code)
		require.NoError(t, err)
		require.NotNil(t, user.Username)
		assert.Equal(t, "crabby", *user.Username)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	_, _, auth := newAuthFixture()

	token, err := auth.GenerateToken("12345", AudienceParticipant)
	require.NoError(t, err)

	subject, err := auth.ValidateToken(token, AudienceParticipant)
	require.NoError(t, err)
	assert.Equal(t, "12345", subject)

	_, err = auth.ValidateToken(token, AudienceAdmin)
	assert.Error(t, err, "participant token must not pass admin checks")

	_, err = auth.ValidateToken("not-a-token", AudienceParticipant)
	assert.Error(t, err)
}
