package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBidService struct {
	placeBidResult  *services.PlaceBidResult
	placeBidErr     error
	current         *services.CurrentAuction
	currentErr      error
	conservation    *services.BudgetConservation
	conservationErr error
	gotInput        services.PlaceBidInput
}

func (s *stubBidService) PlaceBid(ctx context.Context, in services.PlaceBidInput) (*services.PlaceBidResult, error) {
	s.gotInput = in
	return s.placeBidResult, s.placeBidErr
}

func (s *stubBidService) GetCurrentAuction(ctx context.Context, tournamentID int) (*services.CurrentAuction, error) {
	return s.current, s.currentErr
}

func (s *stubBidService) GetLeadingBid(ctx context.Context, playerID int) (*models.AuctionBid, error) {
	return nil, services.ErrNotFound
}

func (s *stubBidService) CheckConservation(ctx context.Context, tournamentID int) (*services.BudgetConservation, error) {
	return s.conservation, s.conservationErr
}

func newBidRouter(bs services.BidService) *chi.Mux {
	h := NewAuctionHandler(bs, nil, nil)
	r := chi.NewRouter()
	r.Post("/tournaments/{tournamentID}/players/{playerID}/bids", h.PlaceBidHandler)
	r.Get("/tournaments/{tournamentID}/auction/current", h.GetCurrentAuctionHandler)
	r.Get("/tournaments/{tournamentID}/auction/conservation", h.ConservationHandler)
	return r
}

func TestPlaceBidHandler(t *testing.T) {
	t.Run("created with warning", func(t *testing.T) {
		stub := &stubBidService{
			placeBidResult: &services.PlaceBidResult{
				Bid:     &models.AuctionBid{ID: 1, PlayerID: 7, TeamOwnerID: 2, BidAmount: 500},
				Warning: "after this bid only 200 remains for 2 more required players (minimum bid 100)",
			},
		}
		router := newBidRouter(stub)

		body := strings.NewReader(`{"team_owner_id": 2, "amount": 500}`)
		req := httptest.NewRequest(http.MethodPost, "/tournaments/3/players/7/bids", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		// URL params override anything in the body.
		assert.Equal(t, 3, stub.gotInput.TournamentID)
		assert.Equal(t, 7, stub.gotInput.PlayerID)
		assert.Equal(t, 2, stub.gotInput.TeamOwnerID)
		assert.Equal(t, 500, stub.gotInput.Amount)

		var resp struct {
			Bid     models.AuctionBid `json:"bid"`
			Warning string            `json:"warning"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 500, resp.Bid.BidAmount)
		assert.Contains(t, resp.Warning, "2 more required players")
	})

	t.Run("rejection carries reason and numeric boundaries", func(t *testing.T) {
		stub := &stubBidService{
			placeBidErr: &services.BidRejection{
				Reason:           services.ReasonBudgetInfeasible,
				Message:          "bid leaves too little budget for 1 more required players; maximum allowed bid is 900",
				MinimumBid:       100,
				MaxAllowedBid:    900,
				PlayersRemaining: 1,
			},
		}
		router := newBidRouter(stub)

		body := strings.NewReader(`{"team_owner_id": 2, "amount": 950}`)
		req := httptest.NewRequest(http.MethodPost, "/tournaments/3/players/7/bids", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp struct {
			Error     string                `json:"error"`
			Rejection services.BidRejection `json:"rejection"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, services.ReasonBudgetInfeasible, resp.Rejection.Reason)
		assert.Equal(t, 900, resp.Rejection.MaxAllowedBid)
		assert.Equal(t, 1, resp.Rejection.PlayersRemaining)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("leading owner raising their own bid is rejected", func(t *testing.T) {
		stub := &stubBidService{
			placeBidErr: &services.BidRejection{
				Reason:  services.ReasonAlreadyLeading,
				Message: "you already hold the leading bid for this player",
			},
		}
		router := newBidRouter(stub)

		body := strings.NewReader(`{"team_owner_id": 2, "amount": 600}`)
		req := httptest.NewRequest(http.MethodPost, "/tournaments/3/players/7/bids", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp struct {
			Rejection services.BidRejection `json:"rejection"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, services.ReasonAlreadyLeading, resp.Rejection.Reason)
	})

	t.Run("sentinel errors map to their status", func(t *testing.T) {
		stub := &stubBidService{placeBidErr: services.ErrOwnerNotApproved}
		router := newBidRouter(stub)

		body := strings.NewReader(`{"team_owner_id": 2, "amount": 500}`)
		req := httptest.NewRequest(http.MethodPost, "/tournaments/3/players/7/bids", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		router := newBidRouter(&stubBidService{})

		req := httptest.NewRequest(http.MethodPost, "/tournaments/3/players/7/bids", strings.NewReader(`{"amount": `))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-numeric tournament id is a bad request", func(t *testing.T) {
		router := newBidRouter(&stubBidService{})

		req := httptest.NewRequest(http.MethodPost, "/tournaments/abc/players/7/bids", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetCurrentAuctionHandler(t *testing.T) {
	t.Run("returns round, player and bids", func(t *testing.T) {
		playerID := 7
		stub := &stubBidService{
			current: &services.CurrentAuction{
				Round:  &models.AuctionRound{ID: 4, TournamentID: 3, Status: models.RoundStatusActive, CurrentPlayerID: &playerID},
				Player: &models.AuctionPlayer{ID: 7, Name: "Arjun Rao"},
				Bids:   []models.AuctionBid{{ID: 1, BidAmount: 500}},
			},
		}
		router := newBidRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/tournaments/3/auction/current", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Auction services.CurrentAuction `json:"auction"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Auction.Player)
		assert.Equal(t, "Arjun Rao", resp.Auction.Player.Name)
		require.Len(t, resp.Auction.Bids, 1)
	})

	t.Run("no active round is a 404", func(t *testing.T) {
		stub := &stubBidService{currentErr: services.ErrNoActiveRound}
		router := newBidRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/tournaments/3/auction/current", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestConservationHandler(t *testing.T) {
	t.Run("reports both sums and the balance verdict", func(t *testing.T) {
		stub := &stubBidService{
			conservation: &services.BudgetConservation{
				TournamentID:    3,
				TotalSpent:      1500,
				TotalSoldPrices: 1500,
				Balanced:        true,
			},
		}
		router := newBidRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/tournaments/3/auction/conservation", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Conservation services.BudgetConservation `json:"conservation"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1500, resp.Conservation.TotalSpent)
		assert.Equal(t, 1500, resp.Conservation.TotalSoldPrices)
		assert.True(t, resp.Conservation.Balanced)
	})

	t.Run("unknown tournament is a 404", func(t *testing.T) {
		stub := &stubBidService{conservationErr: services.ErrTournamentNotFound}
		router := newBidRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/tournaments/99/auction/conservation", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
