package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"auctionhouse/internal/domain"
)

// BidRepository implements domain.BidStore on MySQL. Bids are append-only;
// the only write path is CommitBid.
type BidRepository struct {
	db *sql.DB
}

func NewBidRepository(db *sql.DB) *BidRepository {
	return &BidRepository{db: db}
}

// CommitBid appends the bid and advances current_bid inside one transaction.
// The UPDATE is guarded by a strict comparison against the stored value, so
// even if the caller's per-auction serialization were violated the losing
// commit rolls back whole rather than landing a regressing bid.
func (r *BidRepository) CommitBid(ctx context.Context, bid *domain.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE auction_items
        SET current_bid = ?, updated_at = ?
        WHERE id = ? AND ? > COALESCE(current_bid, starting_bid)
    `, bid.Amount, bid.PlacedAt, bid.AuctionID, bid.Amount)
	if err != nil {
		return fmt.Errorf("advance current bid for auction %s: %w", bid.AuctionID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance current bid for auction %s: %w", bid.AuctionID, err)
	}
	if n == 0 {
		if exists, err := r.auctionExists(ctx, tx, bid.AuctionID); err != nil {
			return err
		} else if !exists {
			return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, domain.ErrNotFound)
		}
		return fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, domain.ErrBidTooLow)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO bids (id, auction_item_id, bidder_id, bid_amount, placed_at)
        VALUES (?, ?, ?, ?, ?)
    `, bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.PlacedAt)
	if err != nil {
		return fmt.Errorf("append bid %s: %w", bid.ID, err)
	}

	return tx.Commit()
}

func (r *BidRepository) auctionExists(ctx context.Context, tx *sql.Tx, auctionID string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM auction_items WHERE id = ?`, auctionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check auction %s: %w", auctionID, err)
	}
	return true, nil
}

func (r *BidRepository) BidsForAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_item_id, bidder_id, bid_amount, placed_at
        FROM bids
        WHERE auction_item_id = ?
        ORDER BY placed_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("bids for auction %s: %w", auctionID, err)
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID, &bid.Amount, &bid.PlacedAt)
		if err != nil {
			return nil, fmt.Errorf("bids for auction %s: %w", auctionID, err)
		}
		bids = append(bids, &bid)
	}
	return bids, rows.Err()
}

func (r *BidRepository) AuctionIDsWithBidsBy(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT DISTINCT auction_item_id FROM bids WHERE bidder_id = ?`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("auctions with bids by %s: %w", userID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("auctions with bids by %s: %w", userID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
