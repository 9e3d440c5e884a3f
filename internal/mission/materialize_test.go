package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sultanPackage() Package {
	return Package{
		ID:       "pkg-sultan",
		Name:     "TikTok - Sultan TT",
		Category: "TikTok",
		Price:    200000,
		Features: []string{"500 Followers @400", "Bonus Share @200", "Rating Bintang 5"},
	}
}

func sultanOrder() Order {
	return Order{
		ID:          "ord-1",
		ClientName:  "Budi",
		PackageName: "TikTok - Sultan TT - Sultan TT",
		SocialLink:  "https://tiktok.com/@budi | Note: promo lebaran",
		TotalPrice:  200200,
		Status:      OrderPending,
	}
}

func TestMaterializeSultanPackage(t *testing.T) {
	m := NewMaterializer(nil)
	out := m.Materialize(sultanPackage(), sultanOrder())

	assert.Equal(t, PlatformTikTok, out.Platform)
	assert.Equal(t, []string{"Rating Bintang 5"}, out.Bundled)
	assert.Equal(t, "✅ Rating Bintang 5", out.Checklist)
	assert.Empty(t, out.Skipped)
	require.Len(t, out.Drafts, 2)

	follow := out.Drafts[0]
	assert.Equal(t, ActionFollow, follow.ActionType)
	assert.Equal(t, 500, follow.Quota)
	assert.Equal(t, int64(400), follow.RewardPerUnit)
	assert.False(t, follow.IsBonus)
	assert.Equal(t, "TikTok - Followers (Budi)\n✅ Rating Bintang 5", follow.Title)
	assert.Equal(t, "https://tiktok.com/@budi", follow.Link)
	assert.Equal(t, "Sosmed", follow.CategoryLabel)
	assert.Equal(t, "ord-1", follow.OrderID)
	assert.Equal(t, "pkg-sultan", follow.PackageID)

	share := out.Drafts[1]
	assert.Equal(t, ActionShare, share.ActionType)
	assert.Equal(t, 1, share.Quota)
	assert.Equal(t, int64(200), share.RewardPerUnit)
	assert.True(t, share.IsBonus)

	assert.Equal(t, int64(500*400+200), TotalReward(out.Drafts))
}

func TestMaterializeOneDraftPerActionable(t *testing.T) {
	pkg := Package{
		Name:     "IG Starter",
		Category: "Sosmed",
		Features: []string{"100 Likes", "50 Followers", "Garansi 30 hari", "10 Komentar"},
	}
	out := NewMaterializer(nil).Materialize(pkg, Order{ClientName: "Sari"})

	require.Len(t, out.Drafts, 3)
	for _, d := range out.Drafts {
		assert.Contains(t, d.Title, "✅ Garansi 30 hari")
		assert.Equal(t, PlatformInstagram, d.Platform)
		assert.Positive(t, d.Quota)
	}
	assert.Equal(t, ActionLike, out.Drafts[0].ActionType)
	assert.Equal(t, ActionFollow, out.Drafts[1].ActionType)
	assert.Equal(t, ActionComment, out.Drafts[2].ActionType)
}

func TestMaterializeUnitPriceBeatsTable(t *testing.T) {
	c := DefaultPackageClassifier()
	pkg := Package{Name: "YT Boost", Features: []string{"10 Subscribers @999", "20 Subscribers"}}
	out := NewMaterializer(c).Materialize(pkg, Order{})

	require.Len(t, out.Drafts, 2)
	assert.Equal(t, int64(999), out.Drafts[0].RewardPerUnit)
	assert.Equal(t, c.Reward(ActionSubscribe), out.Drafts[1].RewardPerUnit)
	assert.Equal(t, PlatformYouTube, out.Drafts[0].Platform)
}

func TestMaterializeSkipsZeroQuantity(t *testing.T) {
	pkg := Package{Name: "FB Mini", Features: []string{"0.0001k Likes @20", "5 Shares"}}
	out := NewMaterializer(nil).Materialize(pkg, Order{})

	require.Len(t, out.Drafts, 1)
	assert.Equal(t, "Shares", out.Drafts[0].ActionLabel)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "Likes", out.Skipped[0].ActionLabel)
}

func TestMaterializeNoActionable(t *testing.T) {
	pkg := Package{Name: "Konsultasi", Features: []string{"Konsultasi strategi", "Laporan mingguan"}}
	out := NewMaterializer(nil).Materialize(pkg, Order{})

	assert.Empty(t, out.Drafts)
	assert.Len(t, out.Bundled, 2)
	assert.Equal(t, PlatformOther, out.Platform)
}

func TestDraftTitleWithoutChecklist(t *testing.T) {
	assert.Equal(t, "Shopee - Wishlist (Andi)", DraftTitle(PlatformShopee, "Wishlist", "Andi", ""))
}
