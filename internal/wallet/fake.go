package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
)

// Fake is an in-memory wallet for tests and the simulator
type Fake struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
}

func NewFake() *Fake {
	return &Fake{balances: make(map[uuid.UUID]int64)}
}

// Fund sets an actor's balance
func (f *Fake) Fund(actorID uuid.UUID, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[actorID] = amount
}

// Balance reads an actor's balance
func (f *Fake) Balance(actorID uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[actorID]
}

func (f *Fake) Debit(_ context.Context, actorID uuid.UUID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.balances[actorID] < amount {
		return domain.ErrInsufficientFunds
	}
	f.balances[actorID] -= amount
	return nil
}
