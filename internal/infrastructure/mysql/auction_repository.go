package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"auctionhouse/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

// AuctionRepository implements domain.AuctionStore on MySQL. Status is never
// persisted; the auctions table carries only end_time and readers derive it.
type AuctionRepository struct {
	db *sql.DB
}

func NewAuctionRepository(db *sql.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

const auctionColumns = `id, owner_id, title, description, starting_bid, current_bid, end_time, image_url, created_at, updated_at`

func (r *AuctionRepository) CreateAuction(ctx context.Context, item *domain.AuctionItem) error {
	query := `
        INSERT INTO auction_items (` + auctionColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.OwnerID, item.Title, item.Description,
		item.StartingBid, nullDecimalValue(item.CurrentBid),
		item.EndTime, item.ImageURL, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create auction %s: %w", item.ID, err)
	}
	return nil
}

func (r *AuctionRepository) GetAuction(ctx context.Context, auctionID string) (*domain.AuctionItem, error) {
	query := `SELECT ` + auctionColumns + ` FROM auction_items WHERE id = ?`

	item, err := scanAuction(r.db.QueryRowContext(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get auction %s: %w", auctionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return item, nil
}

func (r *AuctionRepository) ListAuctions(ctx context.Context, search string) ([]*domain.AuctionItem, error) {
	query := `SELECT ` + auctionColumns + ` FROM auction_items ORDER BY created_at DESC`
	args := []interface{}{}

	if search != "" {
		query = `
            SELECT ` + auctionColumns + ` FROM auction_items
            WHERE LOWER(title) LIKE ? OR LOWER(description) LIKE ?
            ORDER BY created_at DESC
        `
		pattern := "%" + likeEscape(search) + "%"
		args = append(args, pattern, pattern)
	}

	return r.queryAuctions(ctx, query, args...)
}

func (r *AuctionRepository) ListAuctionsByOwner(ctx context.Context, ownerID string) ([]*domain.AuctionItem, error) {
	query := `SELECT ` + auctionColumns + ` FROM auction_items WHERE owner_id = ? ORDER BY created_at DESC`
	return r.queryAuctions(ctx, query, ownerID)
}

// UpdateAuction writes the ledger-owned fields. current_bid is deliberately
// absent: only the bid commit path may move it.
func (r *AuctionRepository) UpdateAuction(ctx context.Context, item *domain.AuctionItem) error {
	query := `
        UPDATE auction_items
        SET title = ?, description = ?, starting_bid = ?, end_time = ?, image_url = ?, updated_at = ?
        WHERE id = ?
    `
	res, err := r.db.ExecContext(ctx, query,
		item.Title, item.Description, item.StartingBid,
		item.EndTime, item.ImageURL, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("update auction %s: %w", item.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update auction %s: %w", item.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteAuction removes the auction and cascades its bids in one transaction.
func (r *AuctionRepository) DeleteAuction(ctx context.Context, auctionID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete auction %s: %w", auctionID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bids WHERE auction_item_id = ?`, auctionID); err != nil {
		return fmt.Errorf("delete bids for auction %s: %w", auctionID, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM auction_items WHERE id = ?`, auctionID)
	if err != nil {
		return fmt.Errorf("delete auction %s: %w", auctionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, domain.ErrNotFound)
	}

	return tx.Commit()
}

func (r *AuctionRepository) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*domain.AuctionItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	var items []*domain.AuctionItem
	for rows.Next() {
		item, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("list auctions: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.AuctionItem, error) {
	var (
		item       domain.AuctionItem
		currentBid sql.NullString
		imageURL   sql.NullString
	)

	err := row.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description,
		&item.StartingBid, &currentBid, &item.EndTime, &imageURL,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if currentBid.Valid {
		amount, err := decimal.NewFromString(currentBid.String)
		if err != nil {
			return nil, fmt.Errorf("parse current_bid for auction %s: %w", item.ID, err)
		}
		item.CurrentBid = decimal.NewNullDecimal(amount)
	}
	item.ImageURL = imageURL.String
	return &item, nil
}

func nullDecimalValue(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeEscape(s string) string {
	return strings.ToLower(likeEscaper.Replace(s))
}
