//go:build integration

package asset_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aurum/internal/custody/models"
	"aurum/internal/custody/store/asset"
	"aurum/internal/platform/storetx"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *asset.PostgresStore
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
	s.store = asset.NewPostgres(s.postgres.DB)
	s.tx = storetx.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "assets")
	s.Require().NoError(err)
}

func mintParams(owner id.Address, warrantID id.WarrantID) models.MintParams {
	return models.MintParams{
		Owner:       owner,
		AccountID:   id.NewAccountID(1000),
		Serial:      "AU-77021",
		Refiner:     "Helvetia Refinery AG",
		WeightGrams: 12441,
		Fineness:    9999,
		ProductType: "CAST_BAR",
		CertHash:    "a3f1",
		MemberID:    "GIC-7",
		Certified:   true,
		WarrantID:   warrantID,
	}
}

func (s *PostgresStoreSuite) newAsset(owner id.Address, warrantID id.WarrantID) *models.Asset {
	ctx := context.Background()
	tokenID, err := s.store.NextID(ctx)
	s.Require().NoError(err)
	a, err := models.NewAsset(tokenID, mintParams(owner, warrantID), time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, a))
	return a
}

// TestConcurrentDuplicateWarrant verifies that concurrent mints against the
// same warrant result in exactly one row.
func (s *PostgresStoreSuite) TestConcurrentDuplicateWarrant() {
	ctx := context.Background()
	warrantID := id.WarrantID("WRT-" + uuid.NewString())
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			tokenID, err := s.store.NextID(ctx)
			if err != nil {
				return
			}
			a, err := models.NewAsset(tokenID, mintParams("0xATHOS", warrantID), time.Now().UTC())
			if err != nil {
				return
			}
			err = s.store.Create(ctx, a)
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

	used, err := s.store.WarrantUsed(ctx, warrantID)
	s.Require().NoError(err)
	s.True(used)
}

func (s *PostgresStoreSuite) TestWarrantUsed() {
	ctx := context.Background()
	used, err := s.store.WarrantUsed(ctx, "WRT-UNSEEN")
	s.Require().NoError(err)
	s.False(used)

	a := s.newAsset("0xATHOS", "WRT-1001")
	used, err = s.store.WarrantUsed(ctx, a.WarrantID)
	s.Require().NoError(err)
	s.True(used)
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	a := s.newAsset("0xATHOS", "WRT-1001")

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal(int64(12441), found.WeightGrams)
	s.Equal(int64(12439), found.FineWeight)
	s.Equal(models.StatusRegistered, found.Status)
	s.Equal(id.NewAccountID(1000), found.MintAccountID)
	s.True(found.Certified)
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, id.NewTokenID(999999))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestOwnerIndexFollowsTransfer verifies ListByOwner reflects ownership
// applied through Execute.
func (s *PostgresStoreSuite) TestOwnerIndexFollowsTransfer() {
	ctx := context.Background()
	a := s.newAsset("0xATHOS", "WRT-1001")
	s.newAsset("0xATHOS", "WRT-1002")

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Execute(ctx, a.ID,
			func(got *models.Asset) error { return got.CanTransfer() },
			func(got *models.Asset) { got.ApplyOwner("0xPORTHOS", time.Now().UTC()) },
		)
		return err
	})
	s.Require().NoError(err)

	remaining, err := s.store.ListByOwner(ctx, "0xATHOS")
	s.Require().NoError(err)
	s.Len(remaining, 1)

	moved, err := s.store.ListByOwner(ctx, "0xPORTHOS")
	s.Require().NoError(err)
	s.Len(moved, 1)
	s.Equal(a.ID, moved[0].ID)
}

// TestExecuteValidationLeavesRowUnchanged verifies a refused validate does
// not persist the apply.
func (s *PostgresStoreSuite) TestExecuteValidationLeavesRowUnchanged() {
	ctx := context.Background()
	a := s.newAsset("0xATHOS", "WRT-1001")

	wantErr := errors.New("refused")
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Execute(ctx, a.ID,
			func(*models.Asset) error { return wantErr },
			func(got *models.Asset) { got.ApplyStatus(models.StatusBurned, time.Now().UTC()) },
		)
		return err
	})
	s.ErrorIs(err, wantErr)

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRegistered, found.Status)
}

// TestConcurrentStatusTransitions runs racing status updates on one token
// and expects every write either to land whole or to lose cleanly.
func (s *PostgresStoreSuite) TestConcurrentStatusTransitions() {
	ctx := context.Background()
	a := s.newAsset("0xATHOS", "WRT-1001")
	statuses := []models.Status{models.StatusInVault, models.StatusInTransit, models.StatusPledged}
	const goroutines = 30

	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			next := statuses[idx%len(statuses)]
			err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
				_, err := s.store.Execute(ctx, a.ID,
					func(got *models.Asset) error { return got.CanTransition() },
					func(got *models.Asset) { got.ApplyStatus(next, time.Now().UTC()) },
				)
				return err
			})
			if err != nil {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Contains(statuses, found.Status)
}
