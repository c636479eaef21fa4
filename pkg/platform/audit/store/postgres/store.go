package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"aurum/pkg/domain"
	audit "aurum/pkg/platform/audit"
	"aurum/pkg/platform/tx"
)

// Store persists audit events in PostgreSQL. Append participates in any
// transaction carried in the context so events commit with the operation.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const appendSQL = `
INSERT INTO audit_events
  (id, ts, action, actor, request_id, account_id, member_id, token_id, order_ref, delta, balance, reason, reference, detail)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, appendSQL,
		event.ID, event.Timestamp, string(event.Action), string(event.Actor), event.RequestID,
		string(event.AccountID), string(event.MemberID), string(event.TokenID), string(event.OrderRef),
		event.Delta, event.Balance, event.Reason, event.Reference, event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

const listByAccountSQL = `
SELECT id, ts, action, actor, request_id, account_id, member_id, token_id, order_ref, delta, balance, reason, reference, detail
FROM audit_events WHERE account_id = $1 ORDER BY ts`

func (s *Store) ListByAccount(ctx context.Context, accountID string) ([]audit.Event, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, listByAccountSQL, accountID)
	if err != nil {
		return nil, fmt.Errorf("list audit events by account: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

const listRecentSQL = `
SELECT id, ts, action, actor, request_id, account_id, member_id, token_id, order_ref, delta, balance, reason, reference, detail
FROM audit_events ORDER BY ts DESC LIMIT $1`

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, listRecentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var out []audit.Event
	for rows.Next() {
		var e audit.Event
		var action, actor, accountID, memberID, tokenID, orderRef string
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &actor, &e.RequestID,
			&accountID, &memberID, &tokenID, &orderRef,
			&e.Delta, &e.Balance, &e.Reason, &e.Reference, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		e.Actor = domain.Address(actor)
		e.AccountID = domain.AccountID(accountID)
		e.MemberID = domain.MemberID(memberID)
		e.TokenID = domain.TokenID(tokenID)
		e.OrderRef = domain.OrderRef(orderRef)
		out = append(out, e)
	}
	return out, rows.Err()
}
