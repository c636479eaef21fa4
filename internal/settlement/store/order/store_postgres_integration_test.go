//go:build integration

package order_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aurum/internal/platform/storetx"
	"aurum/internal/settlement/models"
	"aurum/internal/settlement/store/order"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *order.PostgresStore
	tx       *storetx.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = order.NewPostgres(s.postgres.DB)
	s.tx = storetx.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "orders")
	s.Require().NoError(err)
}

func prepareParams(txRef id.OrderRef) models.PrepareParams {
	return models.PrepareParams{
		ExternalRef:     "EXT-9001",
		TxRef:           txRef,
		Type:            "DVP",
		InitiatorID:     "GIC-7",
		CounterpartyID:  "GIC-8",
		Counterparty:    "0xPORTHOS",
		SourceAccountID: id.NewAccountID(1000),
		DestAccountID:   id.NewAccountID(1001),
		TokenIDs:        []id.TokenID{id.NewTokenID(1), id.NewTokenID(2)},
		RequestedAssets: []string{"AU-77021", "AU-77022"},
		SettlementDate:  "2026-09-01",
		Currency:        "CHF",
		Price:           2_550_000,
		Fee:             1_200,
	}
}

func (s *PostgresStoreSuite) newOrder(txRef id.OrderRef) *models.Order {
	ctx := context.Background()
	o, err := models.NewOrder(prepareParams(txRef), time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, o))
	return o
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	o := s.newOrder("ORD-2026-0001")

	found, err := s.store.FindByRef(ctx, o.TxRef)
	s.Require().NoError(err)
	s.Equal(o.TxRef, found.TxRef)
	s.Equal(models.StatusPendingCounterparty, found.Status)
	s.Equal([]id.TokenID{id.NewTokenID(1), id.NewTokenID(2)}, found.TokenIDs)
	s.Equal([]string{"AU-77021", "AU-77022"}, found.RequestedAssets)
	s.Equal(int64(2), found.Quantity())
	s.Equal(int64(2_550_000), found.Price)
	s.Empty(found.Signature)
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()
	_, err := s.store.FindByRef(ctx, "ORD-UNSEEN")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDuplicateRef verifies a transaction reference is consumed
// exactly once under concurrent creation.
func (s *PostgresStoreSuite) TestConcurrentDuplicateRef() {
	ctx := context.Background()
	txRef := id.OrderRef("ORD-" + uuid.NewString())
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			o, err := models.NewOrder(prepareParams(txRef), time.Now().UTC())
			if err != nil {
				return
			}
			err = s.store.Create(ctx, o)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict error")
}

// TestExecutePersistsSignature walks an order through signing and execution
// and verifies each transition survives a reload.
func (s *PostgresStoreSuite) TestExecutePersistsSignature() {
	ctx := context.Background()
	o := s.newOrder("ORD-2026-0001")
	signature := []byte("sig-bytes")

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Execute(ctx, o.TxRef,
			func(got *models.Order) error { return got.CanSign() },
			func(got *models.Order) { got.ApplySignature(signature, "GIC-8", time.Now().UTC()) },
		)
		return err
	})
	s.Require().NoError(err)

	signed, err := s.store.FindByRef(ctx, o.TxRef)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingExecution, signed.Status)
	s.Equal(signature, signed.Signature)
	s.Equal("GIC-8", signed.SignedBy)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Execute(ctx, o.TxRef,
			func(got *models.Order) error { return got.CanExecute() },
			func(got *models.Order) { got.ApplyExecution(time.Now().UTC()) },
		)
		return err
	})
	s.Require().NoError(err)

	executed, err := s.store.FindByRef(ctx, o.TxRef)
	s.Require().NoError(err)
	s.Equal(models.StatusExecuted, executed.Status)
}

// TestExecuteValidationLeavesRowUnchanged verifies a refused validate does
// not persist the apply.
func (s *PostgresStoreSuite) TestExecuteValidationLeavesRowUnchanged() {
	ctx := context.Background()
	o := s.newOrder("ORD-2026-0001")

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Execute(ctx, o.TxRef,
			func(got *models.Order) error { return got.CanExecute() },
			func(got *models.Order) { got.ApplyExecution(time.Now().UTC()) },
		)
		return err
	})
	s.Error(err, "unsigned order must not execute")

	found, err := s.store.FindByRef(ctx, o.TxRef)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingCounterparty, found.Status)
}
