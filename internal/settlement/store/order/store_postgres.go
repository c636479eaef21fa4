package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"aurum/internal/settlement/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/platform/tx"
)

// PostgresStore persists orders in PostgreSQL. Token lists are stored as a
// comma-joined text column; orders are small and the list is opaque to SQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertOrder = `
INSERT INTO orders
  (tx_ref, external_ref, order_type, initiator_id, counterparty_id, counterparty,
   source_account_id, dest_account_id, token_ids, requested_assets, settlement_date,
   currency, price, fee, metadata, status, signature, signed_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

func (s *PostgresStore) Create(ctx context.Context, order *models.Order) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, insertOrder,
		string(order.TxRef), order.ExternalRef, order.Type, string(order.InitiatorID),
		string(order.CounterpartyID), string(order.Counterparty), string(order.SourceAccountID),
		string(order.DestAccountID), joinTokenIDs(order.TokenIDs), strings.Join(order.RequestedAssets, ","),
		order.SettlementDate, order.Currency, order.Price, order.Fee, order.Metadata,
		string(order.Status), order.Signature, order.SignedBy, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

const selectOrder = `
SELECT tx_ref, external_ref, order_type, initiator_id, counterparty_id, counterparty,
       source_account_id, dest_account_id, token_ids, requested_assets, settlement_date,
       currency, price, fee, metadata, status, signature, signed_by, created_at, updated_at
FROM orders`

func (s *PostgresStore) FindByRef(ctx context.Context, txRef id.OrderRef) (*models.Order, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, selectOrder+` WHERE tx_ref = $1`, string(txRef))
	return scanOrder(row)
}

// Execute locks the row FOR UPDATE, validates, and applies.
// Must run inside a transaction boundary.
func (s *PostgresStore) Execute(ctx context.Context, txRef id.OrderRef,
	validate func(*models.Order) error, apply func(*models.Order)) (*models.Order, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, selectOrder+` WHERE tx_ref = $1 FOR UPDATE`, string(txRef))
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := validate(order); err != nil {
		return nil, err
	}
	apply(order)
	_, err = q.ExecContext(ctx,
		`UPDATE orders SET status = $2, signature = $3, signed_by = $4, updated_at = $5 WHERE tx_ref = $1`,
		string(order.TxRef), string(order.Status), order.Signature, order.SignedBy, order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

func scanOrder(row *sql.Row) (*models.Order, error) {
	var o models.Order
	var txRef, initiatorID, counterpartyID, counterparty, sourceAccountID, destAccountID string
	var tokenIDs, requestedAssets, status string
	err := row.Scan(&txRef, &o.ExternalRef, &o.Type, &initiatorID, &counterpartyID, &counterparty,
		&sourceAccountID, &destAccountID, &tokenIDs, &requestedAssets, &o.SettlementDate,
		&o.Currency, &o.Price, &o.Fee, &o.Metadata, &status, &o.Signature, &o.SignedBy,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.TxRef = id.OrderRef(txRef)
	o.InitiatorID = id.MemberID(initiatorID)
	o.CounterpartyID = id.MemberID(counterpartyID)
	o.Counterparty = id.Address(counterparty)
	o.SourceAccountID = id.AccountID(sourceAccountID)
	o.DestAccountID = id.AccountID(destAccountID)
	o.TokenIDs = splitTokenIDs(tokenIDs)
	if requestedAssets != "" {
		o.RequestedAssets = strings.Split(requestedAssets, ",")
	}
	o.Status = models.Status(status)
	return &o, nil
}

func joinTokenIDs(ids []id.TokenID) string {
	parts := make([]string, len(ids))
	for i, tokenID := range ids {
		parts[i] = string(tokenID)
	}
	return strings.Join(parts, ",")
}

func splitTokenIDs(s string) []id.TokenID {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]id.TokenID, len(parts))
	for i, p := range parts {
		out[i] = id.TokenID(p)
	}
	return out
}
