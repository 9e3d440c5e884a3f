package mission

import (
	"fmt"
	"strings"
)

// Materialization is the result of splitting one package purchase into drafts.
type Materialization struct {
	Platform  Platform       `json:"platform"`
	Drafts    []MissionDraft `json:"drafts"`
	Bundled   []string       `json:"bundled"`
	Checklist string         `json:"checklist"`
	// Skipped holds actionable lines whose quantity floored to zero.
	Skipped []FeatureToken `json:"skipped,omitempty"`
}

// Materializer turns package purchases into mission drafts.
type Materializer struct {
	classifier *Classifier
}

// NewMaterializer builds a materializer over classifier. A nil classifier
// selects the package-verification rewards.
func NewMaterializer(classifier *Classifier) *Materializer {
	if classifier == nil {
		classifier = DefaultPackageClassifier()
	}
	return &Materializer{classifier: classifier}
}

// Classifier exposes the classifier in use.
func (m *Materializer) Classifier() *Classifier {
	return m.classifier
}

// Materialize builds one draft per actionable feature, in feature order.
// Bundled requirements become a checklist folded into every draft title.
func (m *Materializer) Materialize(pkg Package, order Order) Materialization {
	tokens := ParseFeatures(pkg.Features)
	actionable, bundled := SplitTokens(tokens)
	platform := DetectPlatform(PackageSearchText(pkg))

	out := Materialization{Platform: platform}
	for _, b := range bundled {
		if label := strings.TrimSpace(b.ActionLabel); label != "" {
			out.Bundled = append(out.Bundled, label)
		}
	}
	out.Checklist = Checklist(out.Bundled)

	order = NormalizeOrder(order)
	category := CategoryLabel(pkg.Category)

	for _, tok := range actionable {
		if tok.Quantity <= 0 {
			out.Skipped = append(out.Skipped, tok)
			continue
		}
		action, reward := m.classifier.Classify(tok.ActionLabel)
		if tok.UnitPrice != nil {
			reward = *tok.UnitPrice
		}
		out.Drafts = append(out.Drafts, MissionDraft{
			Title:         DraftTitle(platform, tok.ActionLabel, order.ClientName, out.Checklist),
			Platform:      platform,
			ActionType:    action,
			ActionLabel:   tok.ActionLabel,
			Quota:         tok.Quantity,
			RewardPerUnit: reward,
			Link:          order.SocialLink,
			CategoryLabel: category,
			OrderID:       order.ID,
			PackageID:     pkg.ID,
			IsBonus:       tok.IsBonus,
		})
	}
	return out
}

// Checklist renders bundled requirements one per line.
func Checklist(requirements []string) string {
	if len(requirements) == 0 {
		return ""
	}
	lines := make([]string, len(requirements))
	for i, r := range requirements {
		lines[i] = "✅ " + r
	}
	return strings.Join(lines, "\n")
}

// DraftTitle formats "<Platform> - <ActionLabel> (<ClientName>)". The missions
// table has no description column, so the checklist rides on the title.
func DraftTitle(p Platform, actionLabel, clientName, checklist string) string {
	title := fmt.Sprintf("%s - %s (%s)", p, actionLabel, clientName)
	if checklist != "" {
		title += "\n" + checklist
	}
	return title
}

// TotalReward sums quota × reward over drafts.
func TotalReward(drafts []MissionDraft) int64 {
	var total int64
	for _, d := range drafts {
		total += int64(d.Quota) * d.RewardPerUnit
	}
	return total
}
