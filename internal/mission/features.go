package mission

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	pricedFeatureRegex = regexp.MustCompile(`^([\d.,]+[kKmM]?)\s+(.+?)\s*@\s*(\d+)\s*$`)
	bonusFeatureRegex  = regexp.MustCompile(`(?i)^bonus\s+(.+?)\s*@\s*(\d+)\s*$`)
	bonusPrefixRegex   = regexp.MustCompile(`(?i)^bonus\s`)
	plainFeatureRegex  = regexp.MustCompile(`^([\d.,]+[kKmM]?)\s+(.+?)\s*$`)
)

// ParseFeatures parses every raw feature string of a package, keeping order.
func ParseFeatures(features []string) []FeatureToken {
	tokens := make([]FeatureToken, 0, len(features))
	for _, f := range features {
		tokens = append(tokens, ParseFeature(f))
	}
	return tokens
}

// ParseFeature parses a single feature line. Lines that do not match the
// grammar come back as bundled requirements; it never fails.
func ParseFeature(raw string) FeatureToken {
	text := strings.TrimSpace(raw)
	bundled := FeatureToken{Raw: raw, ActionLabel: text}
	if text == "" {
		return bundled
	}

	if m := pricedFeatureRegex.FindStringSubmatch(text); m != nil {
		qty, ok := parseQuantity(m[1])
		price, perr := strconv.ParseInt(m[3], 10, 64)
		if ok && perr == nil {
			return FeatureToken{
				Raw:          raw,
				Quantity:     qty,
				ActionLabel:  strings.TrimSpace(m[2]),
				UnitPrice:    &price,
				IsActionable: true,
			}
		}
	}

	if bonusPrefixRegex.MatchString(text) {
		m := bonusFeatureRegex.FindStringSubmatch(text)
		if m == nil {
			return bundled
		}
		price, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return bundled
		}
		token := FeatureToken{
			Raw:          raw,
			Quantity:     1,
			ActionLabel:  strings.TrimSpace(m[1]),
			UnitPrice:    &price,
			IsBonus:      true,
			IsActionable: true,
		}
		// "Bonus 100 Likes @20" states its own quantity.
		if inner := plainFeatureRegex.FindStringSubmatch(token.ActionLabel); inner != nil {
			if qty, ok := parseQuantity(inner[1]); ok && qty > 0 {
				token.Quantity = qty
				token.ActionLabel = strings.TrimSpace(inner[2])
			}
		}
		return token
	}

	if m := plainFeatureRegex.FindStringSubmatch(text); m != nil {
		if qty, ok := parseQuantity(m[1]); ok {
			return FeatureToken{
				Raw:          raw,
				Quantity:     qty,
				ActionLabel:  strings.TrimSpace(m[2]),
				IsActionable: true,
			}
		}
	}

	return bundled
}

// parseQuantity expands "1.5k", "2,5K", "1m" and plain integers.
func parseQuantity(raw string) (int, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return 0, false
	}
	multiplier := 1.0
	switch {
	case strings.HasSuffix(text, "k"):
		multiplier = 1_000
		text = strings.TrimSuffix(text, "k")
	case strings.HasSuffix(text, "m"):
		multiplier = 1_000_000
		text = strings.TrimSuffix(text, "m")
	}
	text = strings.ReplaceAll(text, ",", ".")
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false
	}
	scaled := math.Floor(value * multiplier)
	if scaled > math.MaxInt32 {
		return 0, false
	}
	return int(scaled), true
}

// SplitTokens partitions tokens into actionable and bundled sets, preserving order.
func SplitTokens(tokens []FeatureToken) (actionable, bundled []FeatureToken) {
	for _, t := range tokens {
		if t.IsActionable {
			actionable = append(actionable, t)
		} else {
			bundled = append(bundled, t)
		}
	}
	return actionable, bundled
}
