// Package views holds the todo, expense, admin and dashboard view-models:
// a mirror of the remote collection plus pure filters and aggregates over it.
package views

import "strings"

// All is the filter value meaning "no constraint on this field".
const All = "all"

// matchesText reports whether any field contains term, case-insensitively.
// An empty term matches everything.
func matchesText(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// matchesChoice is exact equality unless want is All or empty.
func matchesChoice(want, got string) bool {
	return want == "" || want == All || want == got
}

func filterSlice[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
