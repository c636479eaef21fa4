package order

import (
	"context"
	"sync"

	"aurum/internal/settlement/models"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

// InMemory stores orders in process memory. A tx ref, once seen, is consumed
// forever: cancelled and executed orders keep their slot.
type InMemory struct {
	mu     sync.RWMutex
	orders map[id.OrderRef]*models.Order
}

func NewInMemory() *InMemory {
	return &InMemory{orders: make(map[id.OrderRef]*models.Order)}
}

func (s *InMemory) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.TxRef]; exists {
		return sentinel.ErrAlreadyUsed
	}
	cp := cloneOrder(order)
	s.orders[order.TxRef] = cp
	return nil
}

func (s *InMemory) FindByRef(_ context.Context, txRef id.OrderRef) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[txRef]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneOrder(order), nil
}

// Execute runs validate then apply against the live record while holding the
// store lock.
func (s *InMemory) Execute(_ context.Context, txRef id.OrderRef,
	validate func(*models.Order) error, apply func(*models.Order)) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[txRef]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(order); err != nil {
		return nil, err
	}
	apply(order)
	return cloneOrder(order), nil
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.TokenIDs = append([]id.TokenID(nil), o.TokenIDs...)
	cp.RequestedAssets = append([]string(nil), o.RequestedAssets...)
	cp.Signature = append([]byte(nil), o.Signature...)
	return &cp
}
