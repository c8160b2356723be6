// Package correlation stores the refund -> payment mapping that the remote
// status endpoint cannot recover on its own. It is an optional collaborator:
// without a store, refund status lookups carry an empty payment id.
package correlation

import (
	"context"
	"sync"
)

// Store records which payment a refund belongs to.
type Store interface {
	// SaveRefund remembers that refundID refunds paymentID.
	SaveRefund(ctx context.Context, refundID, paymentID string) error
	// PaymentIDForRefund returns the recorded payment id, or "" when the
	// refund is unknown. An unknown refund is not an error.
	PaymentIDForRefund(ctx context.Context, refundID string) (string, error)
}

// MemoryStore is a process-local Store for tests and single-instance use.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) SaveRefund(_ context.Context, refundID, paymentID string) error {
	s.mu.Lock()
	s.m[refundID] = paymentID
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PaymentIDForRefund(_ context.Context, refundID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[refundID], nil
}
