package handlers

import (
	"net/http"
	"time"

	"property-bidding/internal/domain"
	"property-bidding/internal/services"
	"property-bidding/pkg/logger"
	"property-bidding/pkg/utils"

	"github.com/labstack/echo/v4"
)

type ListingHandler struct {
	catalog  domain.PropertyCatalog
	resolver *services.HighestBidResolver
	log      logger.Logger
}

type CreateListingRequest struct {
	Title     string  `json:"title"`
	BasePrice float64 `json:"base_price"`
}

type BidOverviewResponse struct {
	Property   *domain.Listing `json:"property"`
	CurrentBid *domain.Bid     `json:"current_bid"`
}

func NewListingHandler(catalog domain.PropertyCatalog, resolver *services.HighestBidResolver, log logger.Logger) *ListingHandler {
	return &ListingHandler{
		catalog:  catalog,
		resolver: resolver,
		log:      log,
	}
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind listing request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title is required"})
	}
	if req.BasePrice <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "base_price must be positive"})
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		ID:        utils.GenerateID("listing"),
		Title:     req.Title,
		BasePrice: req.BasePrice,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.catalog.CreateListing(c.Request().Context(), listing); err != nil {
		h.log.Error("Failed to create listing", "error", err)
		return errorJSON(c, err)
	}

	h.log.Info("Listing created", "listing_id", listing.ID, "base_price", listing.BasePrice)
	return c.JSON(http.StatusCreated, listing)
}

// BidOverview returns the listing together with its current leading bid,
// null when no bid is leading yet.
func (h *ListingHandler) BidOverview(c echo.Context) error {
	listingID := c.Param("id")

	listing, err := h.catalog.GetListing(c.Request().Context(), listingID)
	if err != nil {
		return errorJSON(c, err)
	}

	currentBid, err := h.resolver.Current(c.Request().Context(), listingID)
	if err != nil {
		h.log.Error("Failed to resolve current leader", "listing_id", listingID, "error", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, BidOverviewResponse{
		Property:   listing,
		CurrentBid: currentBid,
	})
}
