// Package util provides small helpers shared by the radtech packages.
package util

// ClosestMatch returns the candidate with the smallest Levenshtein distance
// to input, or "" when the best distance exceeds maxDistance. Ties keep the
// earliest candidate so results are stable.
func ClosestMatch(input string, candidates []string, maxDistance int) string {
	bestDistance := maxDistance + 1
	var bestMatch string

	for _, candidate := range candidates {
		distance := LevenshteinDistance(input, candidate)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// LevenshteinDistance calculates the minimum number of single-character
// edits required to change a into b.
func LevenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}

	for i := 1; i <= len(a); i++ {
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			current[j] = min(
				previous[j]+1,      // deletion
				current[j-1]+1,     // insertion
				previous[j-1]+cost, // substitution
			)
		}
		previous, current = current, previous
	}

	return previous[len(b)]
}
