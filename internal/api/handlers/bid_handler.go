package handlers

import (
	"errors"
	"net/http"
	"time"

	"auctionhouse/internal/domain"
	"auctionhouse/internal/services"
	"auctionhouse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type BidHandler struct {
	admission *services.AdmissionEngine
	log       logger.Logger
}

func NewBidHandler(admission *services.AdmissionEngine, log logger.Logger) *BidHandler {
	return &BidHandler{
		admission: admission,
		log:       log,
	}
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type BidResponse struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}

func bidResponse(bid *domain.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.ID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		PlacedAt:  bid.PlacedAt,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	principal := c.Request().Header.Get(principalHeader)
	if principal == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind bid request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	bid, err := h.admission.PlaceBid(c.Request().Context(), c.Param("id"), principal, req.Amount)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusCreated, bidResponse(bid))
}

func (h *BidHandler) ListBids(c echo.Context) error {
	bids, err := h.admission.BidsForAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}

	resp := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp = append(resp, bidResponse(bid))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BidHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Auction item not found"})
	case errors.Is(err, domain.ErrAuctionClosed):
		return c.JSON(http.StatusConflict, map[string]string{"error": "Auction has ended"})
	case errors.Is(err, domain.ErrSelfBid):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Cannot bid on your own auction"})
	case errors.Is(err, domain.ErrBidTooLow):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.log.Error("Bid request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
