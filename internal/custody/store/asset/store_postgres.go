package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"aurum/internal/custody/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/platform/tx"
)

// PostgresStore persists assets in PostgreSQL. Warrant uniqueness is a
// unique index on warrant_id; the owner reverse index is a btree on owner.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) NextID(ctx context.Context) (id.TokenID, error) {
	q := tx.QuerierFrom(ctx, s.db)
	var n uint64
	if err := q.QueryRowContext(ctx, `SELECT nextval('token_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("allocate token number: %w", err)
	}
	return id.NewTokenID(n), nil
}

func (s *PostgresStore) WarrantUsed(ctx context.Context, warrantID id.WarrantID) (bool, error) {
	q := tx.QuerierFrom(ctx, s.db)
	var used bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM assets WHERE warrant_id = $1)`, string(warrantID)).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check warrant: %w", err)
	}
	return used, nil
}

const insertAsset = `
INSERT INTO assets
  (id, serial, refiner, weight_grams, fineness, fine_weight, product_type, cert_hash,
   member_id, certified, warrant_id, owner, status, mint_account_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

func (s *PostgresStore) Create(ctx context.Context, asset *models.Asset) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, insertAsset,
		string(asset.ID), asset.Serial, asset.Refiner, asset.WeightGrams, asset.Fineness,
		asset.FineWeight, asset.ProductType, asset.CertHash, string(asset.MemberID),
		asset.Certified, string(asset.WarrantID), string(asset.Owner), string(asset.Status),
		string(asset.MintAccountID), asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

const selectAsset = `
SELECT id, serial, refiner, weight_grams, fineness, fine_weight, product_type, cert_hash,
       member_id, certified, warrant_id, owner, status, mint_account_id, created_at, updated_at
FROM assets`

func (s *PostgresStore) FindByID(ctx context.Context, tokenID id.TokenID) (*models.Asset, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, selectAsset+` WHERE id = $1`, string(tokenID))
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.Address) ([]*models.Asset, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, selectAsset+` WHERE owner = $1 ORDER BY id`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list assets by owner: %w", err)
	}
	defer rows.Close()
	var out []*models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, asset)
	}
	return out, rows.Err()
}

// Execute locks the row FOR UPDATE, validates, and applies.
// Must run inside a transaction boundary.
func (s *PostgresStore) Execute(ctx context.Context, tokenID id.TokenID,
	validate func(*models.Asset) error, apply func(*models.Asset)) (*models.Asset, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, selectAsset+` WHERE id = $1 FOR UPDATE`, string(tokenID))
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	if err := validate(asset); err != nil {
		return nil, err
	}
	apply(asset)
	_, err = q.ExecContext(ctx,
		`UPDATE assets SET owner = $2, status = $3, updated_at = $4 WHERE id = $1`,
		string(asset.ID), string(asset.Owner), string(asset.Status), asset.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	return asset, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var a models.Asset
	var tokenID, memberID, warrantID, owner, status, mintAccountID string
	err := row.Scan(&tokenID, &a.Serial, &a.Refiner, &a.WeightGrams, &a.Fineness, &a.FineWeight,
		&a.ProductType, &a.CertHash, &memberID, &a.Certified, &warrantID, &owner, &status,
		&mintAccountID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan asset: %w", err)
	}
	a.ID = id.TokenID(tokenID)
	a.MemberID = id.MemberID(memberID)
	a.WarrantID = id.WarrantID(warrantID)
	a.Owner = id.Address(owner)
	a.Status = models.Status(status)
	a.MintAccountID = id.AccountID(mintAccountID)
	return &a, nil
}

// isUniqueViolation detects SQLSTATE 23505. The warrant unique index is the
// only constraint this store inserts against.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
