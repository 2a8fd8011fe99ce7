package handlers

import (
	"net/http"

	"property-bidding/internal/domain"
	"property-bidding/internal/services"
	"property-bidding/pkg/logger"

	"github.com/labstack/echo/v4"
)

type BidHandler struct {
	placement *services.BidPlacementService
	ledger    domain.BidLedger
	catalog   domain.PropertyCatalog
	log       logger.Logger
}

type PlaceBidRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

type PlaceBidResponse struct {
	Bid     *domain.Bid       `json:"bid"`
	Outcome domain.BidOutcome `json:"outcome"`
}

func NewBidHandler(placement *services.BidPlacementService, ledger domain.BidLedger, catalog domain.PropertyCatalog, log logger.Logger) *BidHandler {
	return &BidHandler{
		placement: placement,
		ledger:    ledger,
		catalog:   catalog,
		log:       log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	listingID := c.Param("id")

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind bid request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	bid, outcome, err := h.placement.PlaceBid(c.Request().Context(), listingID, req.UserID, req.Amount)
	if err != nil {
		h.log.Error("Failed to place bid", "listing_id", listingID, "user_id", req.UserID, "error", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, PlaceBidResponse{Bid: bid, Outcome: outcome})
}

func (h *BidHandler) BidHistory(c echo.Context) error {
	listingID := c.Param("id")

	if _, err := h.catalog.GetListing(c.Request().Context(), listingID); err != nil {
		return errorJSON(c, err)
	}

	bids, err := h.ledger.History(c.Request().Context(), listingID)
	if err != nil {
		h.log.Error("Failed to load bid history", "listing_id", listingID, "error", err)
		return errorJSON(c, err)
	}

	if bids == nil {
		bids = []*domain.Bid{}
	}
	return c.JSON(http.StatusOK, bids)
}
