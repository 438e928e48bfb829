package handlers

import (
	"net/http"
	"time"

	"github.com/itamhack/hackathon-system/middleware"
	"github.com/itamhack/hackathon-system/services"
)

type AdminHandler struct {
	adminService services.AdminService
	tokenTTL     time.Duration
}

func NewAdminHandler(as services.AdminService, tokenTTL time.Duration) *AdminHandler {
	return &AdminHandler{adminService: as, tokenTTL: tokenTTL}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token, admin, err := h.adminService.Login(r.Context(), input.Login, input.Password)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	setSessionCookie(w, middleware.AdminCookie, token, h.tokenTTL)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"admin": admin}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, middleware.AdminCookie)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "logged out"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
