// internal/matching/geo.go
package matching

import (
	"math"
	"strings"
	"unicode"
)

// earthRadiusKm for the haversine calculation.
const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two points, in km.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLng := (lng2 - lng1) * (math.Pi / 180)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*(math.Pi/180))*math.Cos(lat2*(math.Pi/180))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// normalizeTypeString flattens a vehicle/freight type for comparison:
// lower case, accents stripped, special characters removed, whitespace
// collapsed.
func normalizeTypeString(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == ' ':
			b.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
			// combining mark, drop
		default:
			// strip the common accented latin letters to their base
			if base, ok := accentFold[r]; ok {
				b.WriteRune(base)
			}
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var accentFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

// levenshtein returns the edit distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(rb); i++ {
		curr[0] = i
		for j := 1; j <= len(ra); j++ {
			cost := 1
			if rb[i-1] == ra[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j-1]+cost, curr[j-1]+1, prev[j]+1)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// stringSimilarity returns 0..1, where 1 means identical.
func stringSimilarity(a, b string) float64 {
	longer, shorter := a, b
	if len(b) > len(a) {
		longer, shorter = b, a
	}
	if len(longer) == 0 {
		return 1.0
	}
	d := levenshtein(longer, shorter)
	return float64(len(longer)-d) / float64(len(longer))
}

// TieredMatch compares two type strings with the tiered strategy:
// exact match, normalized match, then fuzzy match. The returned score is
// 0..1 confidence.
func TieredMatch(input, target string) (tier int, score float64) {
	input = strings.TrimSpace(input)
	target = strings.TrimSpace(target)

	if input == target && input != "" {
		return 1, 1.0
	}

	normInput := normalizeTypeString(input)
	normTarget := normalizeTypeString(target)
	if normInput == normTarget && normInput != "" {
		return 2, 0.95
	}

	if normInput == "" || normTarget == "" {
		return 0, 0
	}
	if sim := stringSimilarity(normInput, normTarget); sim >= 0.85 {
		return 3, sim
	}

	return 0, 0
}
