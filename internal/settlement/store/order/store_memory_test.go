package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aurum/internal/settlement/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

type InMemoryOrderStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *InMemoryOrderStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemoryOrderStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryOrderStoreSuite))
}

func (s *InMemoryOrderStoreSuite) newOrder(txRef string) *models.Order {
	order, err := models.NewOrder(models.PrepareParams{
		TxRef:           id.OrderRef(txRef),
		Type:            "DVP",
		InitiatorID:     id.MemberID("GIC-100"),
		CounterpartyID:  id.MemberID("GIC-200"),
		Counterparty:    id.Address("addr-buyer"),
		SourceAccountID: id.NewAccountID(1000),
		DestAccountID:   id.NewAccountID(1001),
		TokenIDs:        []id.TokenID{"GBT-1"},
	}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), order))
	return order
}

func (s *InMemoryOrderStoreSuite) TestCreateAndFind() {
	order := s.newOrder("TX-1")
	ctx := context.Background()

	found, err := s.store.FindByRef(ctx, order.TxRef)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingCounterparty, found.Status)

	_, err = s.store.FindByRef(ctx, id.OrderRef("TX-404"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	dup, err := models.NewOrder(models.PrepareParams{
		TxRef:           order.TxRef,
		InitiatorID:     id.MemberID("GIC-100"),
		CounterpartyID:  id.MemberID("GIC-200"),
		Counterparty:    id.Address("addr-buyer"),
		SourceAccountID: id.NewAccountID(1000),
		DestAccountID:   id.NewAccountID(1001),
		TokenIDs:        []id.TokenID{"GBT-2"},
	}, time.Now())
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.Create(ctx, dup), sentinel.ErrAlreadyUsed)
}

func (s *InMemoryOrderStoreSuite) TestExecuteCallback() {
	order := s.newOrder("TX-1")
	ctx := context.Background()

	updated, err := s.store.Execute(ctx, order.TxRef,
		func(o *models.Order) error { return o.CanSign() },
		func(o *models.Order) { o.ApplySignature([]byte("sig"), "GIC-200", time.Now()) },
	)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingExecution, updated.Status)

	s.Run("validation failure leaves the record unchanged", func() {
		_, err := s.store.Execute(ctx, order.TxRef,
			func(o *models.Order) error { return o.CanSign() },
			func(o *models.Order) { o.ApplySignature([]byte("sig2"), "GIC-300", time.Now()) },
		)
		s.Require().Error(err)

		current, err := s.store.FindByRef(ctx, order.TxRef)
		s.Require().NoError(err)
		s.Equal("GIC-200", current.SignedBy)
	})

	s.Run("returned orders are deep copies", func() {
		found, err := s.store.FindByRef(ctx, order.TxRef)
		s.Require().NoError(err)
		found.TokenIDs[0] = "GBT-999"

		again, err := s.store.FindByRef(ctx, order.TxRef)
		s.Require().NoError(err)
		s.Equal(id.TokenID("GBT-1"), again.TokenIDs[0])
	})
}
