package jwtx_test

import (
	"testing"
	"time"

	"github.com/outta-ai/outta-auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewAccessClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewAccessClaims(jwtx.MemberRef{ID: "m1", Name: "Kim"}, "google", now)

	require.Equal(t, jwtx.AccessSubject, c.Subject)
	require.Equal(t, jwtx.Issuer, c.Issuer)
	require.Equal(t, []string{jwtx.Audience}, []string(c.Audience))
	require.Equal(t, now.Add(time.Hour), c.ExpiresAt.Time)
	require.Equal(t, "m1", c.Member.ID)
	require.Equal(t, "google", c.Authentication.Provider)
	require.NoError(t, c.Validate())
}

func TestNewRefreshClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewRefreshClaims("m1", jwtx.RefreshAuthentication{Provider: "google", Token: "1//rt"}, now)

	require.Equal(t, jwtx.RefreshSubject, c.Subject)
	require.Equal(t, now.Add(14*24*time.Hour), c.ExpiresAt.Time)
	require.Equal(t, "m1", c.Member)
	require.Equal(t, "1//rt", c.Authentication.Token)
	require.NoError(t, c.Validate())
}

func TestClaimsValidate(t *testing.T) {
	t.Run("access without member id", func(t *testing.T) {
		c := jwtx.NewAccessClaims(jwtx.MemberRef{Name: "Kim"}, "google", time.Now())
		require.ErrorIs(t, c.Validate(), jwtx.ErrInvalidClaim)
	})

	t.Run("access without provider", func(t *testing.T) {
		c := jwtx.NewAccessClaims(jwtx.MemberRef{ID: "m1"}, "", time.Now())
		require.ErrorIs(t, c.Validate(), jwtx.ErrInvalidClaim)
	})

	t.Run("refresh without provider token", func(t *testing.T) {
		c := jwtx.NewRefreshClaims("m1", jwtx.RefreshAuthentication{Provider: "google"}, time.Now())
		require.ErrorIs(t, c.Validate(), jwtx.ErrInvalidClaim)
	})
}
