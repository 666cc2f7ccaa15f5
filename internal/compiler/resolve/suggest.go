package resolve

import (
	"sort"
	"strings"
)

const (
	// maxSuggestionDistance is the largest edit distance still offered
	// as a "did you mean" candidate.
	maxSuggestionDistance = 3
	maxSuggestions        = 3
)

// suggest returns up to three declared type names whose local name is
// close to the unresolved reference, for error suggestions.
func suggest(ref string, declared []string) []string {
	target := strings.ToLower(lastSegment(ref))

	type candidate struct {
		fqn      string
		distance int
	}
	var close []candidate
	for _, fqn := range declared {
		dist := editDistance(target, strings.ToLower(lastSegment(fqn)))
		if dist <= maxSuggestionDistance {
			close = append(close, candidate{fqn: fqn, distance: dist})
		}
	}

	sort.SliceStable(close, func(i, j int) bool {
		return close[i].distance < close[j].distance
	})

	result := make([]string, 0, maxSuggestions)
	for i := 0; i < len(close) && i < maxSuggestions; i++ {
		result = append(result, close[i].fqn)
	}
	return result
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// editDistance is the Levenshtein distance between two strings: the
// minimum number of single-character insertions, deletions, or
// substitutions to turn one into the other.
func editDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}
	return matrix[len(s1)][len(s2)]
}
