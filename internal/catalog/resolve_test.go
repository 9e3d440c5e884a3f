package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misicuan-admin/internal/mission"
)

func testPackages() []mission.Package {
	sub := "TikTok"
	return []mission.Package{
		{ID: "p1", Name: "TikTok - Sultan TT", Category: "TikTok", Price: 200000, Features: []string{"500 Followers @400"}},
		{ID: "p2", Name: "Starter IG", Category: "Instagram", Price: 50000, Features: []string{"100 Likes", "10 Comments"}},
		{ID: "p3", Name: "IG", Category: "Instagram", Price: 10000},
		{ID: "p4", Name: "Hemat", Category: "Sosmed", SubCategory: &sub, Price: 25000, Features: []string{"200 Likes"}},
	}
}

func TestResolveStrategies(t *testing.T) {
	pkgs := testPackages()
	cases := []struct {
		name     string
		target   string
		wantID   string
		strategy string
	}{
		{"exact ignores case", "  starter ig ", "p2", "exact"},
		{"dashed second segment", "Sosmed - Hemat - Promo", "p4", "dashed_segment"},
		{"containment", "TikTok - Sultan TT - Sultan TT", "p1", "containment"},
		{"exact full dashed name", "TikTok - Sultan TT", "p1", "exact"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := ResolveIn(pkgs, tc.target, DefaultStrategies)
			require.True(t, ok)
			assert.Equal(t, tc.wantID, m.Package.ID)
			assert.Equal(t, tc.strategy, m.Strategy)
		})
	}
}

func TestResolveShortNamesNeverContained(t *testing.T) {
	_, ok := ResolveIn(testPackages(), "Paket IG murah", DefaultStrategies)
	assert.False(t, ok)
}

func TestResolveMissAndEmpty(t *testing.T) {
	_, ok := ResolveIn(testPackages(), "Paket Custom Facebook", DefaultStrategies)
	assert.False(t, ok)
	_, ok = ResolveIn(testPackages(), "   ", DefaultStrategies)
	assert.False(t, ok)
}

func TestResolveContainmentTakesFirstInOrder(t *testing.T) {
	pkgs := []mission.Package{
		{ID: "a", Name: "Sultan"},
		{ID: "b", Name: "Sultan TT"},
	}
	m, ok := ResolveIn(pkgs, "paket sultan tt", DefaultStrategies)
	require.True(t, ok)
	assert.Equal(t, "a", m.Package.ID)
}

func TestResolveCustomStrategyOrder(t *testing.T) {
	only := []Strategy{{Name: "containment", Match: matchContainment}}
	m, ok := ResolveIn(testPackages(), "starter ig", only)
	require.True(t, ok)
	assert.Equal(t, "containment", m.Strategy)
}
