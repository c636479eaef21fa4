package asset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aurum/internal/custody/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

type InMemoryAssetStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *InMemoryAssetStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemoryAssetStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAssetStoreSuite))
}

func (s *InMemoryAssetStoreSuite) newAsset(warrant string, owner id.Address) *models.Asset {
	ctx := context.Background()
	tokenID, err := s.store.NextID(ctx)
	s.Require().NoError(err)
	asset, err := models.NewAsset(tokenID, models.MintParams{
		Owner:       owner,
		AccountID:   id.NewAccountID(1000),
		Serial:      "AU-" + warrant,
		Refiner:     "Aurora Refining",
		WeightGrams: 1000,
		Fineness:    9999,
		MemberID:    id.MemberID("GIC-100"),
		WarrantID:   id.WarrantID(warrant),
	}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, asset))
	return asset
}

func (s *InMemoryAssetStoreSuite) TestWarrantUniqueness() {
	ctx := context.Background()
	asset := s.newAsset("W-1", id.Address("addr-1"))

	used, err := s.store.WarrantUsed(ctx, asset.WarrantID)
	s.Require().NoError(err)
	s.True(used)

	used, err = s.store.WarrantUsed(ctx, id.WarrantID("W-2"))
	s.Require().NoError(err)
	s.False(used)

	tokenID, err := s.store.NextID(ctx)
	s.Require().NoError(err)
	dup, err := models.NewAsset(tokenID, models.MintParams{
		Owner:       id.Address("addr-1"),
		AccountID:   id.NewAccountID(1000),
		Serial:      "AU-dup",
		Refiner:     "Aurora Refining",
		WeightGrams: 1000,
		Fineness:    9999,
		MemberID:    id.MemberID("GIC-100"),
		WarrantID:   asset.WarrantID,
	}, time.Now())
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.Create(ctx, dup), sentinel.ErrAlreadyUsed)
}

func (s *InMemoryAssetStoreSuite) TestOwnerIndex() {
	ctx := context.Background()
	asset := s.newAsset("W-1", id.Address("addr-1"))
	s.newAsset("W-2", id.Address("addr-1"))

	byOwner, err := s.store.ListByOwner(ctx, id.Address("addr-1"))
	s.Require().NoError(err)
	s.Len(byOwner, 2)

	_, err = s.store.Execute(ctx, asset.ID,
		func(*models.Asset) error { return nil },
		func(a *models.Asset) { a.ApplyOwner(id.Address("addr-2"), time.Now()) },
	)
	s.Require().NoError(err)

	byOwner, err = s.store.ListByOwner(ctx, id.Address("addr-1"))
	s.Require().NoError(err)
	s.Len(byOwner, 1)

	byOwner, err = s.store.ListByOwner(ctx, id.Address("addr-2"))
	s.Require().NoError(err)
	s.Len(byOwner, 1)
}

func (s *InMemoryAssetStoreSuite) TestExecute() {
	ctx := context.Background()
	asset := s.newAsset("W-1", id.Address("addr-1"))

	s.Run("validation failure leaves the record unchanged", func() {
		_, err := s.store.Execute(ctx, asset.ID,
			func(*models.Asset) error { return sentinel.ErrInvalidState },
			func(a *models.Asset) { a.ApplyStatus(models.StatusBurned, time.Now()) },
		)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		current, err := s.store.FindByID(ctx, asset.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRegistered, current.Status)
	})

	s.Run("unknown token returns ErrNotFound", func() {
		_, err := s.store.Execute(ctx, id.TokenID("GBT-404"),
			func(*models.Asset) error { return nil },
			func(*models.Asset) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
