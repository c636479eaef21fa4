package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aurum/internal/ledger/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/platform/tx"
)

// PostgresStore persists accounts in PostgreSQL. IGAN numbers come from a
// sequence starting at the first assigned number; sequences never reuse.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) NextID(ctx context.Context) (id.AccountID, error) {
	q := tx.QuerierFrom(ctx, s.db)
	var n uint64
	if err := q.QueryRowContext(ctx, `SELECT nextval('account_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("allocate account number: %w", err)
	}
	return id.NewAccountID(n), nil
}

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (id, member_id, address, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(account.ID), string(account.MemberID), string(account.Address),
		account.Balance, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

const selectAccount = `SELECT id, member_id, address, balance, created_at, updated_at FROM accounts`

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, selectAccount+` WHERE id = $1`, string(accountID))
	return scanAccount(row)
}

func (s *PostgresStore) ListByMember(ctx context.Context, memberID id.MemberID) ([]*models.Account, error) {
	return s.list(ctx, selectAccount+` WHERE member_id = $1 ORDER BY id`, string(memberID))
}

func (s *PostgresStore) ListByAddress(ctx context.Context, address id.Address) ([]*models.Account, error) {
	return s.list(ctx, selectAccount+` WHERE address = $1 ORDER BY id`, string(address))
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*models.Account, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var out []*models.Account
	for rows.Next() {
		account, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

// Execute locks the row FOR UPDATE, validates, and applies, honoring the
// same contract as the in-memory Execute. Must run inside a transaction
// boundary.
func (s *PostgresStore) Execute(ctx context.Context, accountID id.AccountID,
	validate func(*models.Account) error, apply func(*models.Account)) (*models.Account, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, selectAccount+` WHERE id = $1 FOR UPDATE`, string(accountID))
	account, err := scanAccount(row)
	if err != nil {
		return nil, err
	}
	if err := validate(account); err != nil {
		return nil, err
	}
	apply(account)
	_, err = q.ExecContext(ctx, `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`,
		string(account.ID), account.Balance, account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account, err := scanAccountRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

func scanAccountRows(row rowScanner) (*models.Account, error) {
	var a models.Account
	var accountID, memberID, address string
	if err := row.Scan(&accountID, &memberID, &address, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.ID = id.AccountID(accountID)
	a.MemberID = id.MemberID(memberID)
	a.Address = id.Address(address)
	return &a, nil
}
