package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/itamhack/hackathon-system/cache"
	"github.com/itamhack/hackathon-system/models"
)

type AuthService interface {
	IssueLoginCode(ctx context.Context, telegramID string) (string, error)
	LoginByCode(ctx context.Context, code string) (string, *models.User, error)
	GenerateToken(subject string, audience string) (string, error)
	ValidateToken(tokenString string, audience string) (string, error)
}

// Token audiences distinguish participant sessions from admin sessions.
const (
	AudienceParticipant = "participant"
	AudienceAdmin       = "admin"
)

type authService struct {
	codeStore  cache.LoginCodeStore
	profiles   ProfileService
	secretKey  string
	tokenTTL   time.Duration
	codeTTL    time.Duration
	codeLength int
}

func NewAuthService(
	codeStore cache.LoginCodeStore,
	profiles ProfileService,
	secretKey string,
	tokenTTL time.Duration,
	codeTTL time.Duration,
	codeLength int,
) AuthService {
	return &authService{
		codeStore:  codeStore,
		profiles:   profiles,
		secretKey:  secretKey,
		tokenTTL:   tokenTTL,
		codeTTL:    codeTTL,
		codeLength: codeLength,
	}
}

// IssueLoginCode generates a short-lived numeric code bound to the identity.
// The code is single use; redeeming it completes the login.
func (s *authService) IssueLoginCode(ctx context.Context, telegramID string) (string, error) {
	id := normalizeIdentity(telegramID)
	code, err := generateNumericCode(s.codeLength)
	if err != nil {
		return "", err
	}
	if err := s.codeStore.Save(ctx, code, id, s.codeTTL); err != nil {
		return "", fmt.Errorf("failed to save login code: %w", err)
	}
	return code, nil
}

// LoginByCode redeems a login code for a session token. The code is consumed
// atomically, so a second redemption fails even under concurrent requests.
func (s *authService) LoginByCode(ctx context.Context, code string) (string, *models.User, error) {
	telegramID, err := s.codeStore.Consume(ctx, normalizeIdentity(code))
	if err != nil {
		if errors.Is(err, cache.ErrCodeNotFound) {
			return "", nil, ErrLoginCodeInvalid
		}
		return "", nil, fmt.Errorf("failed to consume login code: %w", err)
	}

	user, err := s.profiles.EnsureUser(ctx, telegramID)
	if err != nil {
		return "", nil, err
	}

	token, err := s.GenerateToken(user.TelegramID, AudienceParticipant)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) GenerateToken(subject string, audience string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"aud": audience,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, checking the audience matches
// the session kind the caller expects, and returns the subject.
func (s *authService) ValidateToken(tokenString string, audience string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	if aud, _ := claims["aud"].(string); aud != audience {
		return "", errors.New("invalid token audience")
	}
	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", errors.New("invalid token subject")
	}
	return subject, nil
}
