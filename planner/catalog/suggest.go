package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a typo may be from a known slug.
const maxSuggestDistance = 3

// SuggestAsset returns the known asset slug closest to slug, for "did you
// mean" hints on unsupported assets. It returns "" when nothing is close.
func (c *Catalog) SuggestAsset(slug string) string {
	return closest(slug, c.assetSlugs())
}

// SuggestYieldPool is SuggestAsset for yield pool slugs.
func (c *Catalog) SuggestYieldPool(slug string) string {
	slugs := make([]string, 0, len(c.yieldPools))
	for s := range c.yieldPools {
		slugs = append(slugs, s)
	}
	return closest(slug, slugs)
}

func (c *Catalog) assetSlugs() []string {
	slugs := make([]string, 0, len(c.assets))
	for s := range c.assets {
		slugs = append(slugs, s)
	}
	return slugs
}

func closest(input string, candidates []string) string {
	if input == "" {
		return ""
	}
	needle := strings.ToLower(input)
	best, bestDist := "", maxSuggestDistance+1
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(cand))
		// ties resolve to the lexically smaller slug so the hint is stable
		if dist < bestDist || (dist == bestDist && cand < best) {
			best, bestDist = cand, dist
		}
		if dist == 0 {
			return cand
		}
	}
	if bestDist > maxSuggestDistance {
		return ""
	}
	return best
}
