// Package ingredient splits free-text ingredient lines into name, quantity
// and unit. Parsing is a best-effort heuristic: a line that matches no rule
// degrades to the whole line as the name.
package ingredient

import (
	"regexp"
	"strings"

	"github.com/Tormknd/RecipeMe/models"
)

// Ordered rules, first match wins. The "de" connective splits the unit from
// the name ("200 g de farine"). Accents in unit words must be covered or
// "cuillère à soupe" would never match.
var (
	reQuantityUnitName = regexp.MustCompile(`(?i)^(\d+(?:/\d+)?(?:\.\d+)?)\s*([a-zA-Zàâäéèêëïîôöùûüÿç\s]+?)\s+de\s+(.+)$`)
	reQuantityName     = regexp.MustCompile(`^(\d+(?:/\d+)?)\s+(.+)$`)
)

// Parse splits a single ingredient line. It never fails; unmatched lines
// come back with the trimmed line as name and nil quantity/unit.
func Parse(line string) models.Ingredient {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return models.Ingredient{Name: ""}
	}

	if m := reQuantityUnitName.FindStringSubmatch(trimmed); m != nil {
		quantity := m[1]
		unit := strings.TrimSpace(m[2])
		return models.Ingredient{
			Name:     strings.TrimSpace(m[3]),
			Quantity: &quantity,
			Unit:     &unit,
		}
	}

	if m := reQuantityName.FindStringSubmatch(trimmed); m != nil {
		quantity := m[1]
		return models.Ingredient{
			Name:     strings.TrimSpace(m[2]),
			Quantity: &quantity,
		}
	}

	return models.Ingredient{Name: trimmed}
}

// ParseAll maps Parse over a list of raw lines, preserving order.
func ParseAll(lines []string) []models.Ingredient {
	parsed := make([]models.Ingredient, 0, len(lines))
	for _, line := range lines {
		parsed = append(parsed, Parse(line))
	}
	return parsed
}
