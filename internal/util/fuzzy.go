// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the excelmanus TUI.
package util

import (
	"sort"
	"strings"
	"unicode"
)

// ===== FUZZY MATCHING =====

// FuzzyMatch scores query against target. Every query rune must appear
// in order in target; higher scores mean better matches. Matching is
// case-insensitive, with bonuses for consecutive runs, word-boundary
// hits, and a prefix match, so "q1" ranks "Q1 Sales" above "Quarterly".
func FuzzyMatch(query, target string) (score int, matched bool) {
	if query == "" {
		return 0, true
	}

	queryRunes := []rune(strings.ToLower(query))
	targetRunes := []rune(strings.ToLower(target))
	if len(queryRunes) > len(targetRunes) {
		return 0, false
	}

	queryPos := 0
	lastMatch := -1
	for pos := 0; pos < len(targetRunes) && queryPos < len(queryRunes); pos++ {
		if targetRunes[pos] != queryRunes[queryPos] {
			continue
		}
		hit := 1
		if lastMatch == pos-1 {
			hit += 5
		}
		if pos == 0 {
			hit += 10
		}
		if wordBoundary(targetRunes, pos) {
			hit += 7
		}
		score += hit
		lastMatch = pos
		queryPos++
	}

	matched = queryPos == len(queryRunes)
	if matched {
		// Shorter targets are better matches.
		score -= len(targetRunes) / 4
	}
	return score, matched
}

// wordBoundary reports whether pos starts a word: position zero, after
// a separator, or at a lower-to-upper camelCase transition.
func wordBoundary(runes []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	prev := runes[pos-1]
	if prev == ' ' || prev == '/' || prev == '-' || prev == '_' {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(runes[pos])
}

// FuzzyRank returns the candidates that fuzzy-match query, best first.
func FuzzyRank(query string, candidates []string) []string {
	type scored struct {
		name  string
		score int
	}
	var hits []scored
	for _, c := range candidates {
		if score, ok := FuzzyMatch(query, c); ok {
			hits = append(hits, scored{c, score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	ranked := make([]string, len(hits))
	for i, h := range hits {
		ranked[i] = h.name
	}
	return ranked
}

// ClosestMatch returns the best fuzzy match for query among candidates,
// or "" when nothing matches. Used for "did you mean" suggestions.
func ClosestMatch(query string, candidates []string) string {
	ranked := FuzzyRank(query, candidates)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0]
}
