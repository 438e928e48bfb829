package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/itamhack/hackathon-system/models"
	"github.com/itamhack/hackathon-system/repositories"
	"github.com/itamhack/hackathon-system/storage"
)

// normalizeIdentity canonicalizes an external identity string. Two identities
// are the same participant iff their normalized forms are equal, so every
// roster and captain comparison goes through this.
func normalizeIdentity(id string) string {
	return strings.TrimSpace(id)
}

// hackathonKey is the canonical membership-map key for a hackathon id.
// Normalization happens here, at the boundary, and nowhere else.
func hackathonKey(hackathonID int) string {
	return strconv.Itoa(hackathonID)
}

// findParticipant locates an identity in a roster by normalized equality and
// returns its index. Entries stored in a different textual form still match.
func findParticipant(roster []string, id string) (int, bool) {
	normalized := normalizeIdentity(id)
	for i, entry := range roster {
		if normalizeIdentity(entry) == normalized {
			return i, true
		}
	}
	return -1, false
}

// generateNumericCode builds a random numeric code of the given length, used
// for login codes and team join passwords. Each digit is drawn uniformly.
func generateNumericCode(length int) (string, error) {
	ten := big.NewInt(10)
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}

// generateStorageKey builds a random object key under the given prefix.
func generateStorageKey(prefix string, ext string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate storage key: %w", err)
	}
	return fmt.Sprintf("%s/%x%s", prefix, buf, ext), nil
}

// recountParticipants recomputes a hackathon's participant counter from the
// current membership maps and writes it back. Called exactly once per
// composite transition, inside the transition's transaction.
func recountParticipants(
	ctx context.Context,
	exec repositories.SQLExecutor,
	userRepo repositories.UserRepository,
	hackathonRepo repositories.HackathonRepository,
	hackathonID int,
) error {
	count, err := userRepo.CountMembershipsForHackathon(ctx, exec, hackathonKey(hackathonID))
	if err != nil {
		return fmt.Errorf("failed to recount participants for hackathon %d: %w", hackathonID, err)
	}
	if err := hackathonRepo.UpdateParticipantsCount(ctx, exec, hackathonID, count); err != nil {
		return fmt.Errorf("failed to store participant count for hackathon %d: %w", hackathonID, err)
	}
	return nil
}

// extensionForContentType maps an image content type to a file extension for
// uploaded avatars and hackathon pictures.
func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImageType, contentType)
	}
}

func populateUserAvatarURL(user *models.User, uploader storage.FileUploader) {
	if user == nil || uploader == nil || user.AvatarKey == nil || *user.AvatarKey == "" {
		return
	}
	if url := uploader.GetPublicURL(*user.AvatarKey); url != "" {
		user.AvatarURL = &url
	}
}

func populateHackathonPicURL(hackathon *models.Hackathon, uploader storage.FileUploader) {
	if hackathon == nil || uploader == nil || hackathon.PicKey == nil || *hackathon.PicKey == "" {
		return
	}
	if url := uploader.GetPublicURL(*hackathon.PicKey); url != "" {
		hackathon.PicURL = &url
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
