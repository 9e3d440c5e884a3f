package mission

import (
	"regexp"
	"strconv"
	"strings"
)

// ManualEntry pre-fills the mission form when an order cannot be split
// automatically.
type ManualEntry struct {
	OrderID       string     `json:"order_id"`
	Title         string     `json:"title"`
	Link          string     `json:"link"`
	Note          string     `json:"note,omitempty"`
	Platform      Platform   `json:"platform"`
	CategoryLabel string     `json:"category_label"`
	ActionType    ActionType `json:"action_type"`
	RewardPerUnit int64      `json:"reward_per_unit"`
	Quota         int        `json:"quota"`
}

// PlatformBaseRewards seed the manual suggestion when no package is known.
var PlatformBaseRewards = map[Platform]int64{
	PlatformTikTok:    300,
	PlatformYouTube:   600,
	PlatformInstagram: 400,
	PlatformFacebook:  400,
}

const (
	defaultManualReward = 2000
	defaultManualQuota  = 50
)

var titleQuantityRegex = regexp.MustCompile(`(\d+)([kK])?`)

// SuggestManualEntry guesses category, action, reward and quota from the
// order's package name and price alone.
func SuggestManualEntry(order Order) ManualEntry {
	order = NormalizeOrder(order)
	platform := DetectPlatform(order.PackageName)
	lower := strings.ToLower(order.PackageName)

	action := guessActionFromName(lower, platform)

	reward, ok := PlatformBaseRewards[platform]
	if !ok {
		reward = defaultManualReward
	}
	switch action {
	case ActionComment, ActionReview:
		reward *= 2
	case ActionLike:
		reward = max(200, reward/2)
	}

	quota := quotaFromName(specificName(order.PackageName))
	if quota == 0 && reward > 0 {
		quota = int(order.TotalPrice / (reward * 2))
	}
	if quota <= 0 {
		quota = defaultManualQuota
	}

	category := "Umkm"
	if platform != PlatformOther {
		category = CategoryLabel(string(platform))
	}

	return ManualEntry{
		OrderID:       order.ID,
		Title:         order.PackageName,
		Link:          order.SocialLink,
		Note:          order.Note,
		Platform:      platform,
		CategoryLabel: category,
		ActionType:    action,
		RewardPerUnit: reward,
		Quota:         quota,
	}
}

func guessActionFromName(lower string, platform Platform) ActionType {
	switch {
	case containsAny(lower, "komentar", "comment"):
		return ActionComment
	case strings.Contains(lower, "like"):
		return ActionLike
	case containsAny(lower, "share", "bagikan"):
		return ActionShare
	case containsAny(lower, "subscribe", "langganan"):
		return ActionSubscribe
	case containsAny(lower, "follow", "ikuti"):
		return ActionFollow
	case containsAny(lower, "review", "ulasan", "rating"):
		return ActionReview
	}
	switch platform {
	case PlatformYouTube:
		return ActionSubscribe
	case PlatformInstagram, PlatformTikTok:
		return ActionFollow
	case PlatformFacebook:
		return ActionShare
	}
	return ActionReview
}

// specificName drops the "<platform> - " prefix of a denormalized package name.
func specificName(full string) string {
	parts := strings.Split(full, " - ")
	if len(parts) < 2 {
		return full
	}
	return strings.Join(parts[1:], " - ")
}

// quotaFromName reads "500" or "1k" from a package name; only 50..2029 count.
func quotaFromName(name string) int {
	m := titleQuantityRegex.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	if m[2] != "" {
		n *= 1000
	}
	if n >= 50 && n < 2030 {
		return n
	}
	return 0
}

// PriceAdvisory is a non-blocking warning that the resolved package may be
// the wrong one.
type PriceAdvisory struct {
	PackagePrice int64   `json:"package_price"`
	OrderPrice   int64   `json:"order_price"`
	Ratio        float64 `json:"ratio"`
}

// CheckPrice compares the package price to the order total (which carries a
// random three-digit suffix). It returns nil when the ratio is within
// [0.5, 1.5] or either price is unknown.
func CheckPrice(pkg Package, order Order) *PriceAdvisory {
	if pkg.Price <= 0 || order.TotalPrice <= 0 {
		return nil
	}
	ratio := float64(pkg.Price) / float64(order.TotalPrice)
	if ratio > 1.5 || ratio < 0.5 {
		return &PriceAdvisory{PackagePrice: pkg.Price, OrderPrice: order.TotalPrice, Ratio: ratio}
	}
	return nil
}
