package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itamhack/hackathon-system/middleware"
	"github.com/itamhack/hackathon-system/services"
)

const maxAvatarBytes = 5 << 20 // 5MB

var errMissingTelegramID = errors.New("missing telegramID parameter")

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(ps services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: ps}
}

func (h *ProfileHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	users, err := h.profileService.ListParticipants(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetProfile returns a participant profile. The editable flag in the response
// tells the client whether the viewer owns this profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	telegramID := chi.URLParam(r, "telegramID")
	if telegramID == "" {
		badRequestResponse(w, r, errMissingTelegramID)
		return
	}

	currentUserID, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	user, err := h.profileService.GetByTelegramID(r.Context(), telegramID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"user":     user,
		"editable": user.TelegramID == currentUserID,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	user, err := h.profileService.GetByTelegramID(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	telegramID := chi.URLParam(r, "telegramID")
	if telegramID == "" {
		badRequestResponse(w, r, errMissingTelegramID)
		return
	}

	var input services.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	user, err := h.profileService.UpdateProfile(r.Context(), telegramID, input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadAvatar accepts a multipart form with an "avatar" file field.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	telegramID := chi.URLParam(r, "telegramID")
	if telegramID == "" {
		badRequestResponse(w, r, errMissingTelegramID)
		return
	}

	currentUserID, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes))
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	user, err := h.profileService.UploadAvatar(r.Context(), telegramID, header.Header.Get("Content-Type"), data, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
