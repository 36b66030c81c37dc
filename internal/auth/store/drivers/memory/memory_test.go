package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/store"
	"github.com/outta-ai/outta-auth/internal/auth/store/drivers/memory"
	"github.com/outta-ai/outta-auth/internal/auth/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return memory.NewStore() })
}

func TestMemoryStoreKeepsDuplicates(t *testing.T) {
	s := memory.NewStore(
		domain.Member{ID: "m1", Name: "Kim", Email: "kim@outta.ai", GoogleID: "10001"},
		domain.Member{ID: "m2", Name: "Kim again", Email: "KIM@outta.ai", GoogleID: "10001"},
	)

	byEmail, err := s.Members().FindByEmail(context.Background(), "kim@outta.ai")
	require.NoError(t, err)
	require.Len(t, byEmail, 2)

	byID, err := s.Members().FindByProviderID(context.Background(), domain.ProviderGoogle, "10001")
	require.NoError(t, err)
	require.Len(t, byID, 2)
}
