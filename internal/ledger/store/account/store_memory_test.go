package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aurum/internal/ledger/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

type InMemoryAccountStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *InMemoryAccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemoryAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAccountStoreSuite))
}

func (s *InMemoryAccountStoreSuite) newAccount() *models.Account {
	ctx := context.Background()
	accountID, err := s.store.NextID(ctx)
	s.Require().NoError(err)
	account, err := models.NewAccount(accountID, id.MemberID("GIC-100"), id.Address("addr-1"), time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, account))
	return account
}

func (s *InMemoryAccountStoreSuite) TestIDAllocation() {
	first := s.newAccount()
	second := s.newAccount()
	s.Equal("IGAN-1000", first.ID.String())
	s.Equal("IGAN-1001", second.ID.String())
}

func (s *InMemoryAccountStoreSuite) TestLookups() {
	account := s.newAccount()
	ctx := context.Background()

	found, err := s.store.FindByID(ctx, account.ID)
	s.Require().NoError(err)
	s.Equal(account.ID, found.ID)

	_, err = s.store.FindByID(ctx, id.NewAccountID(9999))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	byMember, err := s.store.ListByMember(ctx, id.MemberID("GIC-100"))
	s.Require().NoError(err)
	s.Len(byMember, 1)

	byAddress, err := s.store.ListByAddress(ctx, id.Address("addr-1"))
	s.Require().NoError(err)
	s.Len(byAddress, 1)
}

func (s *InMemoryAccountStoreSuite) TestExecute() {
	account := s.newAccount()
	ctx := context.Background()

	s.Run("applies the delta when validation passes", func() {
		updated, err := s.store.Execute(ctx, account.ID,
			func(a *models.Account) error { return a.CanApplyDelta(5) },
			func(a *models.Account) { a.ApplyDelta(5, time.Now()) },
		)
		s.Require().NoError(err)
		s.Equal(int64(5), updated.Balance)
	})

	s.Run("rejects without mutating when validation fails", func() {
		_, err := s.store.Execute(ctx, account.ID,
			func(a *models.Account) error { return a.CanApplyDelta(-100) },
			func(a *models.Account) { a.ApplyDelta(-100, time.Now()) },
		)
		s.Require().Error(err)

		current, err := s.store.FindByID(ctx, account.ID)
		s.Require().NoError(err)
		s.Equal(int64(5), current.Balance)
	})

	s.Run("returned accounts are copies", func() {
		found, err := s.store.FindByID(ctx, account.ID)
		s.Require().NoError(err)
		found.Balance = 777

		again, err := s.store.FindByID(ctx, account.ID)
		s.Require().NoError(err)
		s.Equal(int64(5), again.Balance)
	})
}
