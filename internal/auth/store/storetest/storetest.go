// Package storetest is a behaviour suite every store driver must pass.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/store"
	"github.com/outta-ai/outta-auth/pkg/idx"
)

// Factory returns a fresh, migrated, empty store.
type Factory func(t *testing.T) store.Store

// Run exercises the Members contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("create and get", func(t *testing.T) {
		ctx := context.Background()
		members := newStore(t).Members()

		id := idx.New().String()
		require.NoError(t, members.CreateMember(ctx, domain.Member{ID: id, Name: "Kim", Email: "Kim@Outta.ai"}))

		got, err := members.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "Kim", got.Name)
		require.Equal(t, "kim@outta.ai", got.Email)
		require.Empty(t, got.GoogleID)
		require.False(t, got.CreatedAt.IsZero())

		require.ErrorIs(t, members.CreateMember(ctx, domain.Member{ID: id, Name: "Lee", Email: "lee@outta.ai"}), store.ErrAlreadyExists)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := newStore(t).Members().GetByID(context.Background(), idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("find by email normalizes", func(t *testing.T) {
		ctx := context.Background()
		members := newStore(t).Members()
		require.NoError(t, members.CreateMember(ctx, domain.Member{ID: idx.New().String(), Name: "Kim", Email: "kim@outta.ai"}))

		found, err := members.FindByEmail(ctx, "  KIM@outta.ai")
		require.NoError(t, err)
		require.Len(t, found, 1)

		found, err = members.FindByEmail(ctx, "nobody@outta.ai")
		require.NoError(t, err)
		require.Empty(t, found)

		found, err = members.FindByEmail(ctx, "")
		require.NoError(t, err)
		require.Empty(t, found)
	})

	t.Run("link then find by provider id", func(t *testing.T) {
		ctx := context.Background()
		members := newStore(t).Members()

		id := idx.New().String()
		require.NoError(t, members.CreateMember(ctx, domain.Member{ID: id, Name: "Kim", Email: "kim@outta.ai"}))

		found, err := members.FindByProviderID(ctx, domain.ProviderGoogle, "10001")
		require.NoError(t, err)
		require.Empty(t, found)

		require.NoError(t, members.LinkProviderID(ctx, id, domain.ProviderGoogle, "10001"))
		require.NoError(t, members.LinkProviderID(ctx, id, domain.ProviderGoogle, "10001"), "relink is a no-op")

		found, err = members.FindByProviderID(ctx, domain.ProviderGoogle, "10001")
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.Equal(t, id, found[0].ID)
		require.Equal(t, "10001", found[0].GoogleID)
	})

	t.Run("link conflicts", func(t *testing.T) {
		ctx := context.Background()
		members := newStore(t).Members()

		id := idx.New().String()
		require.NoError(t, members.CreateMember(ctx, domain.Member{ID: id, Name: "Kim", Email: "kim@outta.ai", GoogleID: "10001"}))

		require.ErrorIs(t, members.LinkProviderID(ctx, id, domain.ProviderGoogle, "20002"), store.ErrProviderConflict)
		require.ErrorIs(t, members.LinkProviderID(ctx, idx.New().String(), domain.ProviderGoogle, "20002"), store.ErrNotFound)
	})

	t.Run("unknown provider", func(t *testing.T) {
		ctx := context.Background()
		members := newStore(t).Members()

		_, err := members.FindByProviderID(ctx, "github", "1")
		require.ErrorIs(t, err, store.ErrUnknownProvider)
		require.ErrorIs(t, members.LinkProviderID(ctx, "m1", "github", "1"), store.ErrUnknownProvider)
	})

	t.Run("list ordered by email", func(t *testing.T) {
		ctx := context.Background()
		members := newStore(t).Members()

		for _, email := range []string{"c@outta.ai", "a@outta.ai", "b@outta.ai"} {
			require.NoError(t, members.CreateMember(ctx, domain.Member{ID: idx.New().String(), Name: email, Email: email}))
		}

		list, err := members.ListMembers(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		require.Equal(t, "a@outta.ai", list[0].Email)
		require.Equal(t, "c@outta.ai", list[2].Email)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
}
