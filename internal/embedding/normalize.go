package embedding

import (
	"strings"

	"github.com/hyperjump/synergy/pkg/utils"
)

var descriptionCleaner = strings.NewReplacer(`\n`, " ", "\n", " ", "'", "", "+", "", "%", "")

// NormalizeDescription prepares scraped description text for embedding: line breaks
// (real or escaped) become spaces, apostrophes, plus and percent signs are dropped and
// runs of spaces collapsed.
func NormalizeDescription(text string) string {
	return strings.TrimSpace(utils.CollapseSpaces(descriptionCleaner.Replace(text)))
}
