package catalog

import (
	"sort"
	"strings"

	"misicuan-admin/internal/mission"
)

const defaultSearchLimit = 10

type scoredPackage struct {
	Package mission.Package
	Score   int
}

// filterByQuery ranks packages against a free-text query. An empty query
// returns the catalog grouped by category, cheapest first.
func filterByQuery(packages []mission.Package, query string, limit int) []mission.Package {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		res := make([]mission.Package, len(packages))
		copy(res, packages)
		sort.SliceStable(res, func(i, j int) bool {
			left := strings.ToLower(res[i].Category)
			right := strings.ToLower(res[j].Category)
			if left == right {
				return res[i].Price < res[j].Price
			}
			return left < right
		})
		return topN(res, limit)
	}

	tokens := tokenizeQuery(query)
	var scored []scoredPackage
	for _, p := range packages {
		if score := matchScore(p, tokens); score > 0 {
			scored = append(scored, scoredPackage{Package: p, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Package.Price < scored[j].Package.Price
		}
		return scored[i].Score > scored[j].Score
	})

	top := make([]mission.Package, 0, len(scored))
	for _, sc := range scored {
		top = append(top, sc.Package)
	}
	return topN(top, limit)
}

func matchScore(p mission.Package, tokens []string) int {
	name := strings.ToLower(p.Name)
	category := strings.ToLower(p.Category)
	sub := strings.ToLower(p.SubCategoryOrEmpty())
	platform := strings.ToLower(string(mission.DetectPlatform(mission.PackageSearchText(p))))
	features := strings.ToLower(strings.Join(p.Features, "\n"))

	score := 0
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if strings.Contains(name, token) {
			score += 4
		}
		if strings.Contains(category, token) {
			score += 3
		}
		if sub != "" && strings.Contains(sub, token) {
			score += 3
		}
		if strings.Contains(platform, token) {
			score += 2
		}
		if strings.Contains(features, token) {
			score++
		}
	}
	return score
}

func topN(items []mission.Package, n int) []mission.Package {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// tokenizeQuery splits on whitespace and punctuation. Tokens mixing digits and
// letters ("500followers") also contribute their digits.
func tokenizeQuery(query string) []string {
	if query == "" {
		return nil
	}
	query = strings.NewReplacer(".", " ", ",", " ", "-", " ", "/", " ").Replace(query)
	rawTokens := strings.Fields(query)
	expanded := make([]string, 0, len(rawTokens)*2)
	for _, token := range rawTokens {
		token = strings.ToLower(token)
		expanded = append(expanded, token)
		if strings.ContainsAny(token, "0123456789") && strings.ContainsAny(token, "abcdefghijklmnopqrstuvwxyz") {
			var digits strings.Builder
			for _, r := range token {
				if r >= '0' && r <= '9' {
					digits.WriteRune(r)
				}
			}
			if digits.Len() > 0 {
				expanded = append(expanded, digits.String())
			}
		}
	}
	return expanded
}
