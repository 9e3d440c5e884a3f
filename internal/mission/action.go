package mission

import (
	"fmt"
	"sort"
	"strings"
)

// FallbackAction is what an unclassifiable label resolves to, at every call site.
const FallbackAction = ActionLike

// RewardTable maps an action type to its default reward per unit.
type RewardTable map[ActionType]int64

// ManualEntryRewards are the floors used when an operator builds a mission by
// hand from a package template.
func ManualEntryRewards() RewardTable {
	return RewardTable{
		ActionFollow:       50,
		ActionLike:         20,
		ActionComment:      150,
		ActionReview:       2000,
		ActionSubscribe:    50,
		ActionShare:        100,
		ActionView:         10,
		ActionLive:         25,
		ActionShopReview:   2500,
		ActionShopFavorite: 100,
		ActionLiveTraffic:  25,
	}
}

// PackageVerificationRewards are the floors used when an order is split into
// missions and a feature line carries no @price.
func PackageVerificationRewards() RewardTable {
	return RewardTable{
		ActionFollow:       400,
		ActionLike:         200,
		ActionComment:      750,
		ActionReview:       3000,
		ActionSubscribe:    600,
		ActionShare:        400,
		ActionView:         100,
		ActionLive:         300,
		ActionShopReview:   3000,
		ActionShopFavorite: 200,
		ActionLiveTraffic:  100,
	}
}

// Merge returns a copy of t with the entries of override applied on top.
func (t RewardTable) Merge(override map[string]int64) (RewardTable, error) {
	out := make(RewardTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	for name, reward := range override {
		action, ok := ParseActionType(name)
		if !ok {
			return nil, fmt.Errorf("unknown action type %q", name)
		}
		if reward < 0 {
			return nil, fmt.Errorf("negative reward for %s", action)
		}
		out[action] = reward
	}
	return out, nil
}

// ActionRule maps a set of lower-case keywords to an action type.
type ActionRule struct {
	Action   ActionType
	Keywords []string
}

// DefaultActionRules is the priority-ordered keyword table. Shop rules come
// first, "rating" sits under Review and "subscribe"/"langgan" precede the bare
// "sub" of Follow.
var DefaultActionRules = []ActionRule{
	{Action: ActionShopReview, Keywords: []string{"shop review", "ulasan toko", "review toko"}},
	{Action: ActionShopFavorite, Keywords: []string{"product like", "wishlist", "favorite", "favorit"}},
	{Action: ActionLiveTraffic, Keywords: []string{"live traffic", "live viewer", "penonton live", "stream"}},
	{Action: ActionReview, Keywords: []string{"review", "ulasan", "ulas", "gmaps", "google", "rating", "bintang", "testimoni"}},
	{Action: ActionComment, Keywords: []string{"comment", "komen"}},
	{Action: ActionSubscribe, Keywords: []string{"subscribe", "langgan"}},
	{Action: ActionFollow, Keywords: []string{"follow", "ikut", "sub"}},
	{Action: ActionLike, Keywords: []string{"like", "suka", "love"}},
	{Action: ActionShare, Keywords: []string{"share", "bagi"}},
	{Action: ActionView, Keywords: []string{"view", "tonton", "nonton", "tayang", "traffic"}},
	{Action: ActionLive, Keywords: []string{"live"}},
}

// Classifier resolves free-text action labels to canonical action types.
// It holds no mutable state; Classify is pure.
type Classifier struct {
	rules    []ActionRule
	rewards  RewardTable
	fallback ActionType
}

// NewClassifier builds a classifier over the default rules with the given rewards.
func NewClassifier(rewards RewardTable) *Classifier {
	return &Classifier{
		rules:    DefaultActionRules,
		rewards:  rewards,
		fallback: FallbackAction,
	}
}

// DefaultManualClassifier uses the manual-entry reward table.
func DefaultManualClassifier() *Classifier {
	return NewClassifier(ManualEntryRewards())
}

// DefaultPackageClassifier uses the package-verification reward table.
func DefaultPackageClassifier() *Classifier {
	return NewClassifier(PackageVerificationRewards())
}

// Classify returns the action type and default reward for label.
func (c *Classifier) Classify(label string) (ActionType, int64) {
	action := c.Action(label)
	return action, c.rewards[action]
}

// Action returns only the action type for label.
func (c *Classifier) Action(label string) ActionType {
	text := strings.ToLower(label)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Action
			}
		}
	}
	return c.fallback
}

// Reward returns the configured floor for action.
func (c *Classifier) Reward(action ActionType) int64 {
	return c.rewards[action]
}

// Rewards returns a copy of the reward table, ordered by action name.
func (c *Classifier) Rewards() []RewardEntry {
	entries := make([]RewardEntry, 0, len(c.rewards))
	for action, reward := range c.rewards {
		entries = append(entries, RewardEntry{Action: action, Reward: reward})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Action < entries[j].Action })
	return entries
}

// RewardEntry is one row of a reward table.
type RewardEntry struct {
	Action ActionType `json:"action"`
	Reward int64      `json:"reward"`
}

var allActions = []ActionType{
	ActionFollow, ActionLike, ActionComment, ActionReview, ActionSubscribe, ActionShare,
	ActionView, ActionLive, ActionShopReview, ActionShopFavorite, ActionLiveTraffic,
}

// ParseActionType matches a canonical action name case-insensitively.
func ParseActionType(name string) (ActionType, bool) {
	name = strings.TrimSpace(name)
	for _, a := range allActions {
		if strings.EqualFold(string(a), name) {
			return a, true
		}
	}
	return "", false
}
