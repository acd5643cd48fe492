package handlers

import (
	"net/http"

	"github.com/crichub/cricket-auction/middleware"
	"github.com/crichub/cricket-auction/services"
)

type TeamOwnerHandler struct {
	ownerService services.TeamOwnerService
}

func NewTeamOwnerHandler(os services.TeamOwnerService) *TeamOwnerHandler {
	return &TeamOwnerHandler{ownerService: os}
}

// RegisterHandler handles POST /tournaments/{tournamentID}/owners
func (h *TeamOwnerHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to register a team")
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterTeamOwnerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID

	owner, err := h.ownerService.Register(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team_owner": owner}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveHandler handles POST /tournaments/{tournamentID}/owners/{ownerID}/approve
func (h *TeamOwnerHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ownerID, err := getIDFromURL(r, "ownerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	owner, err := h.ownerService.Approve(r.Context(), tournamentID, ownerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team_owner": owner}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /owners/{ownerID}
func (h *TeamOwnerHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := getIDFromURL(r, "ownerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	owner, err := h.ownerService.GetByID(r.Context(), ownerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team_owner": owner}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/owners
func (h *TeamOwnerHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	owners, err := h.ownerService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team_owners": owners}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
