// Package imageprefix rewrites worker template images to registry mirrors.
package imageprefix

import (
	"strings"

	"github.com/docker/distribution/reference"
)

// Override is a prefix replacement rule.
type Override struct {
	From, To string
}

// Replace replaces the image prefix with the most specific matching override.
// The image is matched as written first and in its normalized form second,
// so "docker.io/library/" overrides also apply to short names like "maven:3".
func Replace(image string, overrides []Override) string {
	if len(overrides) == 0 {
		return image
	}

	candidates := []string{image}
	if named, err := reference.ParseNormalizedNamed(image); err == nil && named.String() != image {
		candidates = append(candidates, named.String())
	}

	for _, candidate := range candidates {
		bestMatch := mostSpecificIndex(candidate, overrides)
		if bestMatch == -1 {
			continue
		}
		override := overrides[bestMatch]
		return override.To + candidate[len(override.From):]
	}
	// No match found. Return original string.
	return image
}

func mostSpecificIndex(image string, overrides []Override) int {
	bestMatchLen := 0
	bestMatch := -1

	for i, override := range overrides {
		if len(override.From) == 0 || !strings.HasPrefix(image, override.From) {
			continue
		}
		// Skip if match is not longer than previous best match.
		if bestMatchLen >= len(override.From) {
			continue
		}
		bestMatch = i
		bestMatchLen = len(override.From)
	}

	return bestMatch
}
