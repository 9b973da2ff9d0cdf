package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{"match": match})
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

// ListMatches принимает необязательные ?status= и ?team_id=
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var filter services.MatchListFilter

	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status := models.MatchStatus(raw)
		filter.Status = &status
	}
	if raw := query.Get("team_id"); raw != "" {
		teamID, err := strconv.Atoi(raw)
		if err != nil || teamID <= 0 {
			errorResponse(w, r, http.StatusBadRequest, "team_id must be a positive integer")
			return
		}
		filter.TeamID = &teamID
	}

	matches, err := h.matchService.ListMatches(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var patch services.UpdateMatchInput
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.UpdateMatch(r.Context(), matchID, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": result.Match}
	if result.Standings != nil {
		response["standings"] = result.Standings
		if warn := result.Standings.Warning(); warn != nil {
			response["warning"] = warn.Error()
		}
	}
	respond(w, r, http.StatusOK, response)
}

func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
