package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestManualEntry(t *testing.T) {
	tests := []struct {
		name     string
		order    Order
		platform Platform
		category string
		action   ActionType
		reward   int64
		quota    int
	}{
		{
			name:     "quantity from name",
			order:    Order{PackageName: "TikTok - Paket 1k Followers", TotalPrice: 350000},
			platform: PlatformTikTok,
			category: "Sosmed",
			action:   ActionFollow,
			reward:   300,
			quota:    1000,
		},
		{
			name:     "quota from price",
			order:    Order{PackageName: "Google Maps - Ulasan Bintang 5", TotalPrice: 100000},
			platform: PlatformGoogleMaps,
			category: "Umkm",
			action:   ActionReview,
			reward:   4000,
			quota:    12,
		},
		{
			name:     "like floor",
			order:    Order{PackageName: "Instagram - 500 Likes", TotalPrice: 100000},
			platform: PlatformInstagram,
			category: "Sosmed",
			action:   ActionLike,
			reward:   200,
			quota:    500,
		},
		{
			name:     "unknown everything",
			order:    Order{PackageName: "Paket Misterius"},
			platform: PlatformOther,
			category: "Umkm",
			action:   ActionReview,
			reward:   4000,
			quota:    50,
		},
		{
			name:     "platform default action",
			order:    Order{PackageName: "YouTube - Paket Hemat", TotalPrice: 60000},
			platform: PlatformYouTube,
			category: "Sosmed",
			action:   ActionSubscribe,
			reward:   600,
			quota:    50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestManualEntry(tt.order)
			assert.Equal(t, tt.platform, got.Platform)
			assert.Equal(t, tt.category, got.CategoryLabel)
			assert.Equal(t, tt.action, got.ActionType)
			assert.Equal(t, tt.reward, got.RewardPerUnit)
			assert.Equal(t, tt.quota, got.Quota)
			assert.Equal(t, tt.order.PackageName, got.Title)
		})
	}
}

func TestSuggestManualEntrySplitsNote(t *testing.T) {
	got := SuggestManualEntry(Order{PackageName: "x", SocialLink: "https://a.b | Note: halo"})
	assert.Equal(t, "https://a.b", got.Link)
	assert.Equal(t, "halo", got.Note)
}

func TestCheckPrice(t *testing.T) {
	pkg := Package{Price: 200000}

	assert.Nil(t, CheckPrice(pkg, Order{TotalPrice: 200200}))
	assert.Nil(t, CheckPrice(Package{}, Order{TotalPrice: 200200}))
	assert.Nil(t, CheckPrice(pkg, Order{}))

	adv := CheckPrice(Package{Price: 50000}, Order{TotalPrice: 200200})
	require.NotNil(t, adv)
	assert.Less(t, adv.Ratio, 0.5)

	adv = CheckPrice(Package{Price: 400000}, Order{TotalPrice: 200200})
	require.NotNil(t, adv)
	assert.Greater(t, adv.Ratio, 1.5)
}
