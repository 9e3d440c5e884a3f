package catalog

import (
	"testing"

	"misicuan-admin/internal/mission"
)

func TestFilterByQueryPrefersName(t *testing.T) {
	matches := filterByQuery(testPackages(), "sultan tiktok", 5)
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].ID != "p1" {
		t.Fatalf("expected p1 first, got %s", matches[0].ID)
	}
}

func TestFilterByQueryEmptyGroupsByCategory(t *testing.T) {
	matches := filterByQuery(testPackages(), "", 0)
	if len(matches) != 4 {
		t.Fatalf("expected 4 packages, got %d", len(matches))
	}
	if matches[0].ID != "p3" || matches[1].ID != "p2" {
		t.Fatalf("expected cheapest instagram first, got %s, %s", matches[0].ID, matches[1].ID)
	}
}

func TestFilterByQueryLimit(t *testing.T) {
	matches := filterByQuery(testPackages(), "likes", 1)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

func TestFilterByQueryNoMatch(t *testing.T) {
	if got := filterByQuery([]mission.Package{{Name: "Sultan"}}, "shopee", 5); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestTokenizeQueryAddsDigits(t *testing.T) {
	tokens := tokenizeQuery("500followers tiktok")
	want := []string{"500followers", "500", "tiktok"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v", tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("tokens[%d] = %s, want %s", i, tokens[i], want[i])
		}
	}
}
