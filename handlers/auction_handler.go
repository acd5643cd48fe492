package handlers

import (
	"net/http"

	"github.com/crichub/cricket-auction/services"
)

// AuctionHandler serves the live auction surface: bids, player resolution,
// approval and the final migration to the permanent roster.
type AuctionHandler struct {
	bidService        services.BidService
	resolutionService services.ResolutionService
	migrationService  services.MigrationService
}

func NewAuctionHandler(
	bs services.BidService,
	rs services.ResolutionService,
	ms services.MigrationService,
) *AuctionHandler {
	return &AuctionHandler{
		bidService:        bs,
		resolutionService: rs,
		migrationService:  ms,
	}
}

// PlaceBidHandler handles POST /tournaments/{tournamentID}/players/{playerID}/bids
func (h *AuctionHandler) PlaceBidHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.PlaceBidInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID
	input.PlayerID = playerID

	result, err := h.bidService.PlaceBid(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	env := jsonResponse{"bid": result.Bid}
	if result.Warning != "" {
		env["warning"] = result.Warning
	}
	if err := writeJSON(w, http.StatusCreated, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetCurrentAuctionHandler handles GET /tournaments/{tournamentID}/auction/current
func (h *AuctionHandler) GetCurrentAuctionHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	current, err := h.bidService.GetCurrentAuction(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"auction": current}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConservationHandler handles GET /tournaments/{tournamentID}/auction/conservation
func (h *AuctionHandler) ConservationHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.bidService.CheckConservation(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"conservation": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetLeadingBidHandler handles GET /tournaments/{tournamentID}/players/{playerID}/bids/leading
func (h *AuctionHandler) GetLeadingBidHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bid, err := h.bidService.GetLeadingBid(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bid": bid}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResolvePlayerHandler handles POST /tournaments/{tournamentID}/players/{playerID}/resolve
func (h *AuctionHandler) ResolvePlayerHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ResolvePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID
	input.PlayerID = playerID

	resolution, err := h.resolutionService.ResolvePlayer(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"resolution": resolution}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApprovePlayerHandler handles POST /tournaments/{tournamentID}/players/{playerID}/approve
func (h *AuctionHandler) ApprovePlayerHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.resolutionService.ApprovePlayer(r.Context(), tournamentID, playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MigrateHandler handles POST /tournaments/{tournamentID}/migrate
func (h *AuctionHandler) MigrateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	completeTournament := r.URL.Query().Get("complete") == "true"

	report, err := h.migrationService.MigrateApprovedPlayers(r.Context(), tournamentID, completeTournament)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusOK
	if len(report.Errors) > 0 {
		// Partial success still returns the report; 207 signals mixed results.
		status = http.StatusMultiStatus
	}
	if err := writeJSON(w, status, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
