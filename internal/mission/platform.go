package mission

import "strings"

type platformRule struct {
	platform Platform
	match    func(upper string) bool
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsWord(s string, words ...string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

// platformRules is checked top to bottom; TikTok Shop must precede TikTok.
var platformRules = []platformRule{
	{PlatformTikTokShop, func(s string) bool {
		return strings.Contains(s, "TIKTOK SHOP") || (strings.Contains(s, "TIKTOK") && strings.Contains(s, "SHOP"))
	}},
	{PlatformTikTok, func(s string) bool { return containsAny(s, "TIKTOK") || containsWord(s, "TT") }},
	{PlatformYouTube, func(s string) bool { return containsAny(s, "YOUTUBE") || containsWord(s, "YT") }},
	{PlatformInstagram, func(s string) bool { return containsAny(s, "INSTAGRAM") || containsWord(s, "IG") }},
	{PlatformFacebook, func(s string) bool { return containsAny(s, "FACEBOOK") || containsWord(s, "FB") }},
	{PlatformShopee, func(s string) bool { return containsAny(s, "SHOPEE") }},
	{PlatformGoogleMaps, func(s string) bool { return containsAny(s, "GOOGLE", "GMAPS", "MAPS") }},
}

// DetectPlatform infers the platform from free text. PlatformOther is a valid
// result that asks the operator to decide.
func DetectPlatform(searchableText string) Platform {
	upper := strings.ToUpper(searchableText)
	for _, rule := range platformRules {
		if rule.match(upper) {
			return rule.platform
		}
	}
	return PlatformOther
}

// PackageSearchText concatenates sub-category, category and name, the input
// DetectPlatform expects for a package.
func PackageSearchText(p Package) string {
	return strings.TrimSpace(p.SubCategoryOrEmpty() + " " + p.Category + " " + p.Name)
}

// ParsePlatform matches a canonical platform name case-insensitively.
func ParsePlatform(name string) (Platform, bool) {
	for _, p := range []Platform{
		PlatformTikTok, PlatformTikTokShop, PlatformYouTube, PlatformInstagram,
		PlatformFacebook, PlatformShopee, PlatformGoogleMaps, PlatformOther,
	} {
		if strings.EqualFold(string(p), strings.TrimSpace(name)) {
			return p, true
		}
	}
	return "", false
}

// CategoryLabel maps a raw package category onto the mission category enum.
func CategoryLabel(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "Other"
	}
	switch strings.ToUpper(trimmed) {
	case "SOSMED", "TIKTOK", "INSTAGRAM", "YOUTUBE", "FACEBOOK":
		return "Sosmed"
	case "UMKM", "GOOGLE MAPS":
		return "Umkm"
	case "E-COMMERCE", "ECOMMERCE", "SHOPEE", "TIKTOK SHOP":
		return "E-Commerce"
	}
	runes := []rune(strings.ToLower(trimmed))
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
