package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierPriorities(t *testing.T) {
	c := DefaultManualClassifier()

	tests := []struct {
		label string
		want  ActionType
	}{
		{"Followers", ActionFollow},
		{"Ikuti Akun", ActionFollow},
		{"Sub Channel", ActionFollow},
		{"Subscribers", ActionSubscribe},
		{"Langganan", ActionSubscribe},
		{"Rating Bintang 5", ActionReview},
		{"Ulasan Google Maps", ActionReview},
		{"Testimoni", ActionReview},
		{"Komentar Positif", ActionComment},
		{"Likes", ActionLike},
		{"Suka Postingan", ActionLike},
		{"Share", ActionShare},
		{"Bagikan", ActionShare},
		{"Views", ActionView},
		{"Nonton Video", ActionView},
		{"Live", ActionLive},
		{"Live Stream Viewer", ActionLiveTraffic},
		{"Shop Review", ActionShopReview},
		{"Wishlist Produk", ActionShopFavorite},
		{"Something Else", FallbackAction},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, _ := c.Classify(tt.label)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := DefaultPackageClassifier()
	a1, r1 := c.Classify("Rating Bintang 5")
	a2, r2 := c.Classify("Rating Bintang 5")
	assert.Equal(t, a1, a2)
	assert.Equal(t, r1, r2)
}

func TestRewardTablesAreDistinct(t *testing.T) {
	manual := NewClassifier(ManualEntryRewards())
	pkg := NewClassifier(PackageVerificationRewards())

	_, manualFollow := manual.Classify("Followers")
	_, pkgFollow := pkg.Classify("Followers")
	assert.Equal(t, int64(50), manualFollow)
	assert.Equal(t, int64(400), pkgFollow)

	_, manualReview := manual.Classify("Review")
	_, pkgReview := pkg.Classify("Review")
	assert.Equal(t, int64(2000), manualReview)
	assert.Equal(t, int64(3000), pkgReview)
}

func TestRewardTableMerge(t *testing.T) {
	merged, err := PackageVerificationRewards().Merge(map[string]int64{"follow": 999, "SHOP_REVIEW": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(999), merged[ActionFollow])
	assert.Equal(t, int64(1), merged[ActionShopReview])
	assert.Equal(t, int64(750), merged[ActionComment])

	// The base table is untouched.
	assert.Equal(t, int64(400), PackageVerificationRewards()[ActionFollow])

	_, err = ManualEntryRewards().Merge(map[string]int64{"Dance": 10})
	assert.Error(t, err)

	_, err = ManualEntryRewards().Merge(map[string]int64{"Like": -1})
	assert.Error(t, err)
}
