package correlation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SaveRefund(ctx, "ref_1", "pay_1"))

	paymentID, err := store.PaymentIDForRefund(ctx, "ref_1")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", paymentID)
}

func TestMemoryStoreUnknownRefundIsNotAnError(t *testing.T) {
	paymentID, err := NewMemoryStore().PaymentIDForRefund(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, paymentID)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.SaveRefund(ctx, "ref_shared", "pay_shared")
		}()
		go func() {
			defer wg.Done()
			_, _ = store.PaymentIDForRefund(ctx, "ref_shared")
		}()
	}
	wg.Wait()

	paymentID, err := store.PaymentIDForRefund(ctx, "ref_shared")
	require.NoError(t, err)
	assert.Equal(t, "pay_shared", paymentID)
}
