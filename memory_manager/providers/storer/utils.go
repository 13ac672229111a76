package storer

import (
	"math"
	"regexp"
	"sort"
)

var metadataKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidFilterKey reports whether key can be used as a metadata filter key.
// Backends that interpolate keys into queries rely on this.
func ValidFilterKey(key string) bool {
	return metadataKey.MatchString(key)
}

// Matches reports whether metadata satisfies every equality in filter.
func Matches(metadata map[string]string, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// CosineDistance is 1 - cosine similarity. Mismatched or zero vectors are
// maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0
	}

	return 1 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
}

// Nearest scores candidates against vector and returns the closest limit.
func Nearest(candidates []Record, vector []float32, limit int) []Record {
	for i := range candidates {
		candidates[i].Distance = float32(CosineDistance(vector, candidates[i].Embedding))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates
}
