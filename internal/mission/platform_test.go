package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		text string
		want Platform
	}{
		{"TikTok Shop Review", PlatformTikTokShop},
		{"Shop TikTok Paket A", PlatformTikTokShop},
		{"TikTok - Sultan TT", PlatformTikTok},
		{"Paket TT Hemat", PlatformTikTok},
		{"Buttery Smooth", PlatformOther},
		{"YouTube Subscribers", PlatformYouTube},
		{"Paket YT", PlatformYouTube},
		{"Instagram Likes", PlatformInstagram},
		{"ig/starter", PlatformInstagram},
		{"Facebook Page", PlatformFacebook},
		{"Shopee Favorit", PlatformShopee},
		{"GMaps Review", PlatformGoogleMaps},
		{"Ulasan Google Maps", PlatformGoogleMaps},
		{"", PlatformOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.text))
		})
	}
}

func TestPackageSearchTextUsesSubCategory(t *testing.T) {
	sub := "TikTok Shop"
	p := Package{Name: "Paket Toko", Category: "E-Commerce", SubCategory: &sub}
	assert.Equal(t, "TikTok Shop E-Commerce Paket Toko", PackageSearchText(p))
	assert.Equal(t, PlatformTikTokShop, DetectPlatform(PackageSearchText(p)))

	p.SubCategory = nil
	assert.Equal(t, "E-Commerce Paket Toko", PackageSearchText(p))
}

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform(" tiktok shop ")
	assert.True(t, ok)
	assert.Equal(t, PlatformTikTokShop, p)

	_, ok = ParsePlatform("Myspace")
	assert.False(t, ok)
}

func TestCategoryLabel(t *testing.T) {
	tests := map[string]string{
		"sosmed":      "Sosmed",
		"Instagram":   "Sosmed",
		"Google Maps": "Umkm",
		"UMKM":        "Umkm",
		"tiktok shop": "E-Commerce",
		"Ecommerce":   "E-Commerce",
		"":            "Other",
		"  ":          "Other",
		"jasa lain":   "Jasa lain",
		"élan":        "Élan",
	}
	for in, want := range tests {
		assert.Equal(t, want, CategoryLabel(in), "input %q", in)
	}
}
