package handlers

import (
	"net/http"
	"time"

	"github.com/itamhack/hackathon-system/middleware"
	"github.com/itamhack/hackathon-system/services"
)

type AuthHandler struct {
	authService services.AuthService
	tokenTTL    time.Duration
}

func NewAuthHandler(as services.AuthService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: as, tokenTTL: tokenTTL}
}

// IssueLoginCode generates a one-time login code for the given identity.
// Called by the bot, which relays the code to the user.
func (h *AuthHandler) IssueLoginCode(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TelegramID string `json:"telegram_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	code, err := h.authService.IssueLoginCode(r.Context(), input.TelegramID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"code": code}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LoginByCode redeems a one-time code for a participant session cookie.
func (h *AuthHandler) LoginByCode(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code string `json:"code"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token, user, err := h.authService.LoginByCode(r.Context(), input.Code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	setSessionCookie(w, middleware.ParticipantCookie, token, h.tokenTTL)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, middleware.ParticipantCookie)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "logged out"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func setSessionCookie(w http.ResponseWriter, name string, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
