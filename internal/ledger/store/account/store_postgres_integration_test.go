//go:build integration

package account_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aurum/internal/ledger/models"
	"aurum/internal/ledger/store/account"
	"aurum/internal/platform/storetx"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *account.PostgresStore
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
	s.store = account.NewPostgres(s.postgres.DB)
	s.tx = storetx.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "accounts")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newAccount(memberID id.MemberID, addr id.Address) *models.Account {
	ctx := context.Background()
	accountID, err := s.store.NextID(ctx)
	s.Require().NoError(err)
	acct, err := models.NewAccount(accountID, memberID, addr, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, acct))
	return acct
}

// TestConcurrentNextID verifies the sequence never hands out the same
// account number twice.
func (s *PostgresStoreSuite) TestConcurrentNextID() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[id.AccountID]bool)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accountID, err := s.store.NextID(ctx)
			if err != nil {
				return
			}
			mu.Lock()
			seen[accountID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Len(seen, goroutines, "every allocation should be distinct")
	for accountID := range seen {
		_, err := id.ParseAccountID(accountID.String())
		s.NoError(err)
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	acct := s.newAccount("GIC-7", "0xATHOS")

	found, err := s.store.FindByID(ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal(acct.ID, found.ID)
	s.Equal(id.MemberID("GIC-7"), found.MemberID)
	s.Equal(id.Address("0xATHOS"), found.Address)
	s.Equal(int64(0), found.Balance)
}

func (s *PostgresStoreSuite) TestListings() {
	ctx := context.Background()
	a1 := s.newAccount("GIC-7", "0xATHOS")
	a2 := s.newAccount("GIC-7", "0xPORTHOS")
	s.newAccount("GIC-8", "0xARAMIS")

	byMember, err := s.store.ListByMember(ctx, "GIC-7")
	s.Require().NoError(err)
	s.Len(byMember, 2)
	s.Equal(a1.ID, byMember[0].ID)
	s.Equal(a2.ID, byMember[1].ID)

	byAddress, err := s.store.ListByAddress(ctx, "0xPORTHOS")
	s.Require().NoError(err)
	s.Len(byAddress, 1)
	s.Equal(a2.ID, byAddress[0].ID)

	empty, err := s.store.ListByMember(ctx, "GIC-9999")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, id.NewAccountID(999999))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDeltas applies 50 concurrent unit credits inside transaction
// boundaries and expects no lost updates.
func (s *PostgresStoreSuite) TestConcurrentDeltas() {
	ctx := context.Background()
	acct := s.newAccount("GIC-7", "0xATHOS")
	const goroutines = 50

	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
				_, err := s.store.Execute(ctx, acct.ID,
					func(a *models.Account) error { return a.CanApplyDelta(1) },
					func(a *models.Account) { a.ApplyDelta(1, time.Now().UTC()) },
				)
				return err
			})
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	found, err := s.store.FindByID(ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal(int64(goroutines), found.Balance)
}

// TestValidationRollsBack verifies a failed validate leaves the row untouched.
func (s *PostgresStoreSuite) TestValidationRollsBack() {
	ctx := context.Background()
	acct := s.newAccount("GIC-7", "0xATHOS")

	wantErr := errors.New("refused")
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Execute(ctx, acct.ID,
			func(*models.Account) error { return wantErr },
			func(a *models.Account) { a.ApplyDelta(100, time.Now().UTC()) },
		)
		return err
	})
	s.ErrorIs(err, wantErr)

	found, err := s.store.FindByID(ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), found.Balance)
}
