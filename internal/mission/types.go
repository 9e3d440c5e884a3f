package mission

import "time"

// Platform is the canonical target platform of a mission.
type Platform string

const (
	PlatformTikTok     Platform = "TikTok"
	PlatformTikTokShop Platform = "TikTok Shop"
	PlatformYouTube    Platform = "YouTube"
	PlatformInstagram  Platform = "Instagram"
	PlatformFacebook   Platform = "Facebook"
	PlatformShopee     Platform = "Shopee"
	PlatformGoogleMaps Platform = "Google Maps"
	PlatformOther      Platform = "Other"
)

// ActionType is the canonical unit of work a worker performs.
type ActionType string

const (
	ActionFollow       ActionType = "Follow"
	ActionLike         ActionType = "Like"
	ActionComment      ActionType = "Comment"
	ActionReview       ActionType = "Review"
	ActionSubscribe    ActionType = "Subscribe"
	ActionShare        ActionType = "Share"
	ActionView         ActionType = "View"
	ActionLive         ActionType = "Live"
	ActionShopReview   ActionType = "SHOP_REVIEW"
	ActionShopFavorite ActionType = "SHOP_FAVORITE"
	ActionLiveTraffic  ActionType = "LIVE_TRAFFIC"
)

// NeedsGeneratedContent reports whether missions of this type get AI written task content.
func (a ActionType) NeedsGeneratedContent() bool {
	return a == ActionComment || a == ActionReview
}

// Order statuses.
const (
	OrderPending  = "pending"
	OrderVerified = "verified"
	OrderRejected = "rejected"
)

// Mission statuses.
const (
	MissionActive    = "Active"
	MissionCompleted = "Completed"
)

// Package is a purchasable offer described by a free-text feature list.
type Package struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	SubCategory  *string  `json:"sub_category,omitempty"`
	Price        int64    `json:"price"`
	Features     []string `json:"features"`
	DefaultQuota *int     `json:"default_quota,omitempty"`
	IsBestValue  bool     `json:"is_best_value"`
	IsDecoy      bool     `json:"is_decoy"`
	OrderIndex   int      `json:"order_index"`
}

// SubCategoryOrEmpty returns the sub-category or an empty string.
func (p Package) SubCategoryOrEmpty() string {
	if p.SubCategory == nil {
		return ""
	}
	return *p.SubCategory
}

// Instructions are the structured content hints a client leaves at checkout.
type Instructions struct {
	Topic  string   `json:"topic,omitempty"`
	Tone   string   `json:"tone,omitempty"`
	Points []string `json:"points,omitempty"`
}

// IsZero reports whether no instruction was given.
func (i *Instructions) IsZero() bool {
	return i == nil || (i.Topic == "" && i.Tone == "" && len(i.Points) == 0)
}

// Order is a client purchase request.
type Order struct {
	ID               string        `json:"id"`
	ClientName       string        `json:"client_name"`
	ClientWhatsapp   string        `json:"client_whatsapp"`
	PackageName      string        `json:"package_name"`
	SocialLink       string        `json:"social_link"`
	Note             string        `json:"note,omitempty"`
	TotalPrice       int64         `json:"total_price"`
	Status           string        `json:"status"`
	UserInstructions *Instructions `json:"user_instructions,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// FeatureToken is one parsed line of a package feature list.
type FeatureToken struct {
	Raw          string `json:"raw"`
	Quantity     int    `json:"quantity"`
	ActionLabel  string `json:"action_label"`
	UnitPrice    *int64 `json:"unit_price,omitempty"`
	IsBonus      bool   `json:"is_bonus"`
	IsActionable bool   `json:"is_actionable"`
}

// MissionDraft is a mission built from a package purchase, not yet persisted.
type MissionDraft struct {
	Title         string     `json:"title"`
	Platform      Platform   `json:"platform"`
	ActionType    ActionType `json:"action_type"`
	ActionLabel   string     `json:"action_label"`
	Quota         int        `json:"quota"`
	RewardPerUnit int64      `json:"reward_per_unit"`
	Link          string     `json:"link"`
	CategoryLabel string     `json:"category_label"`
	OrderID       string     `json:"order_id,omitempty"`
	PackageID     string     `json:"package_id,omitempty"`
	IsBonus       bool       `json:"is_bonus"`
}

// Mission is a persisted draft.
type Mission struct {
	MissionDraft
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	TakenCount int       `json:"taken_count"`
	CreatedAt  time.Time `json:"created_at"`
}
