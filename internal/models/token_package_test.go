package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenPackage_FinalPrice(t *testing.T) {
	pkg := TokenPackage{Price: 59.99, DiscountPercentage: 10}
	require.InDelta(t, 53.991, pkg.FinalPrice(), 0.0001)

	full := TokenPackage{Price: 9.99}
	require.InDelta(t, 9.99, full.FinalPrice(), 0.0001)
}

func TestTokenPackage_TotalTokens(t *testing.T) {
	pkg := TokenPackage{Tokens: 200, BonusTokens: 20}
	require.Equal(t, 220, pkg.TotalTokens())
}

func TestTokenPackage_IsExpired(t *testing.T) {
	now := time.Now()

	open := TokenPackage{}
	require.False(t, open.IsExpired(now))

	past := now.Add(-time.Minute)
	expired := TokenPackage{ExpiresAt: &past}
	require.True(t, expired.IsExpired(now))

	future := now.Add(time.Minute)
	running := TokenPackage{ExpiresAt: &future}
	require.False(t, running.IsExpired(now))
}
