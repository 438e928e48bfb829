package handlers

import (
	"net/http"

	"github.com/itamhack/hackathon-system/services"
)

type HackathonHandler struct {
	hackathonService services.HackathonService
}

func NewHackathonHandler(hs services.HackathonService) *HackathonHandler {
	return &HackathonHandler{hackathonService: hs}
}

func (h *HackathonHandler) ListHackathons(w http.ResponseWriter, r *http.Request) {
	hackathons, err := h.hackathonService.ListHackathons(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"hackathons": hackathons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *HackathonHandler) GetHackathon(w http.ResponseWriter, r *http.Request) {
	hackathonID, err := urlParamInt(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	hackathon, err := h.hackathonService.GetHackathon(r.Context(), hackathonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"hackathon": hackathon}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *HackathonHandler) CreateHackathon(w http.ResponseWriter, r *http.Request) {
	var input services.HackathonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	hackathon, err := h.hackathonService.CreateHackathon(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"hackathon": hackathon}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *HackathonHandler) UpdateHackathon(w http.ResponseWriter, r *http.Request) {
	hackathonID, err := urlParamInt(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.HackathonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	hackathon, err := h.hackathonService.UpdateHackathon(r.Context(), hackathonID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"hackathon": hackathon}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *HackathonHandler) DeleteHackathon(w http.ResponseWriter, r *http.Request) {
	hackathonID, err := urlParamInt(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.hackathonService.DeleteHackathon(r.Context(), hackathonID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "hackathon deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
