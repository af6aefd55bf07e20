package handlers

import (
	"errors"
	"net/http"
	"time"

	"auctionhouse/internal/domain"
	"auctionhouse/internal/services"
	"auctionhouse/pkg/clock"
	"auctionhouse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// principalHeader carries the opaque, already-authenticated user ID injected
// by the external auth layer. The core never sees credentials.
const principalHeader = "X-User-ID"

type AuctionHandler struct {
	ledger     *services.Ledger
	settlement *services.Settlement
	clock      clock.Clock
	log        logger.Logger
}

func NewAuctionHandler(ledger *services.Ledger, settlement *services.Settlement, clk clock.Clock, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		ledger:     ledger,
		settlement: settlement,
		clock:      clk,
		log:        log,
	}
}

type CreateAuctionRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartingBid decimal.Decimal `json:"starting_bid"`
	EndTime     time.Time       `json:"end_time"`
	ImageURL    string          `json:"image_url"`
}

type UpdateAuctionRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	StartingBid *decimal.Decimal `json:"starting_bid"`
	EndTime     *time.Time       `json:"end_time"`
	ImageURL    *string          `json:"image_url"`
}

type AuctionResponse struct {
	AuctionID   string           `json:"auction_id"`
	OwnerID     string           `json:"owner_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	StartingBid decimal.Decimal  `json:"starting_bid"`
	CurrentBid  *decimal.Decimal `json:"current_bid,omitempty"`
	EndTime     time.Time        `json:"end_time"`
	ImageURL    string           `json:"image_url,omitempty"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

type WinnerResponse struct {
	Winner  *BidResponse `json:"winner"`
	Message string       `json:"message,omitempty"`
}

type WonAuctionResponse struct {
	AuctionID   string          `json:"auction_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	WinningBid  decimal.Decimal `json:"winning_bid"`
	EndTime     time.Time       `json:"end_time"`
}

func (h *AuctionHandler) auctionResponse(item *domain.AuctionItem) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:   item.ID,
		OwnerID:     item.OwnerID,
		Title:       item.Title,
		Description: item.Description,
		StartingBid: item.StartingBid,
		EndTime:     item.EndTime,
		ImageURL:    item.ImageURL,
		Status:      item.Status(h.clock.Now()).String(),
		CreatedAt:   item.CreatedAt,
	}
	if item.CurrentBid.Valid {
		amount := item.CurrentBid.Decimal
		resp.CurrentBid = &amount
	}
	return resp
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	principal := c.Request().Header.Get(principalHeader)
	if principal == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind create request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	item, err := h.ledger.CreateAuction(c.Request().Context(), services.CreateAuctionParams{
		OwnerID:     principal,
		Title:       req.Title,
		Description: req.Description,
		StartingBid: req.StartingBid,
		EndTime:     req.EndTime,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusCreated, h.auctionResponse(item))
}

func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	items, err := h.ledger.ListAuctions(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return h.writeError(c, err)
	}

	resp := make([]AuctionResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, h.auctionResponse(item))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuctionHandler) ListMyAuctions(c echo.Context) error {
	principal := c.Request().Header.Get(principalHeader)
	if principal == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	items, err := h.ledger.ListAuctionsByOwner(c.Request().Context(), principal)
	if err != nil {
		return h.writeError(c, err)
	}

	resp := make([]AuctionResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, h.auctionResponse(item))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	item, err := h.ledger.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.auctionResponse(item))
}

func (h *AuctionHandler) UpdateAuction(c echo.Context) error {
	principal := c.Request().Header.Get(principalHeader)
	if principal == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	var req UpdateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind update request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	item, err := h.ledger.UpdateAuction(c.Request().Context(), c.Param("id"), principal, domain.AuctionPatch{
		Title:       req.Title,
		Description: req.Description,
		StartingBid: req.StartingBid,
		EndTime:     req.EndTime,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, h.auctionResponse(item))
}

func (h *AuctionHandler) DeleteAuction(c echo.Context) error {
	principal := c.Request().Header.Get(principalHeader)
	if principal == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	if err := h.ledger.DeleteAuction(c.Request().Context(), c.Param("id"), principal); err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Auction item removed"})
}

func (h *AuctionHandler) GetWinner(c echo.Context) error {
	winning, err := h.settlement.Winner(c.Request().Context(), c.Param("id"))
	if err != nil {
		// An ended auction with zero bids is a normal outcome, not a fault.
		if errors.Is(err, domain.ErrNoBids) {
			return c.JSON(http.StatusOK, WinnerResponse{Message: "No bids found"})
		}
		return h.writeError(c, err)
	}

	resp := bidResponse(winning)
	return c.JSON(http.StatusOK, WinnerResponse{Winner: &resp})
}

func (h *AuctionHandler) GetWonAuctions(c echo.Context) error {
	principal := c.Request().Header.Get(principalHeader)
	if principal == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	won, err := h.settlement.WonAuctions(c.Request().Context(), principal)
	if err != nil {
		return h.writeError(c, err)
	}

	resp := make([]WonAuctionResponse, 0, len(won))
	for _, w := range won {
		resp = append(resp, WonAuctionResponse{
			AuctionID:   w.AuctionID,
			Title:       w.Title,
			Description: w.Description,
			WinningBid:  w.WinningBid,
			EndTime:     w.EndTime,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"won_auctions": resp})
}

// writeError maps business outcomes to status codes; anything unmatched is an
// infrastructure fault and becomes a 500.
func (h *AuctionHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Auction item not found"})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Unauthorized action"})
	case errors.Is(err, domain.ErrAuctionNotEnded):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Auction has not ended yet"})
	default:
		h.log.Error("Request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
