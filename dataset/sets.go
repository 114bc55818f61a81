package dataset

import "sort"

// Set builds a membership set from names.
func Set(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, v := range names {
		out[v] = struct{}{}
	}
	return out
}

// IndexIn returns the positions of names that are present in keep, in the
// order they appear in names. Repeated names are all reported.
func IndexIn(names []string, keep map[string]struct{}) []int {
	out := make([]int, 0)
	for i, v := range names {
		if _, exists := keep[v]; exists {
			out = append(out, i)
		}
	}
	return out
}

// Intersect returns the sorted, de-duplicated names present in both a and b.
func Intersect(a, b []string) []string {
	inB := Set(b)
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, v := range a {
		if _, exists := inB[v]; !exists {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FirstIndex maps each name to the position of its first occurrence.
func FirstIndex(names []string) map[string]int {
	out := make(map[string]int, len(names))
	for i, v := range names {
		if _, exists := out[v]; !exists {
			out[v] = i
		}
	}
	return out
}

// Duplicates returns the names that occur more than once, sorted.
func Duplicates(names []string) []string {
	counts := make(map[string]int, len(names))
	for _, v := range names {
		counts[v]++
	}
	out := make([]string, 0)
	for k, n := range counts {
		if n > 1 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
