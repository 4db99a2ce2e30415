package services

import (
	"strings"
	"unicode/utf8"

	"agriconnect/models"
)

// MinQueryLength is the shortest trimmed query that activates search.
const MinQueryLength = 2

// Search matches query against farm text fields and crop types. Matching is
// case-insensitive substring containment; both result lists keep catalog
// order and are never truncated. Queries shorter than MinQueryLength return
// an empty result.
func Search(catalog []*models.Farm, query string) models.SearchResult {
	result := models.SearchResult{
		Farms: []*models.Farm{},
		Crops: []models.CropMatch{},
	}

	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return result
	}
	q = strings.ToLower(q)

	for _, farm := range catalog {
		if farm == nil {
			continue
		}
		if containsFold(farm.Name, q) ||
			containsFold(farm.Location, q) ||
			containsFold(farm.State, q) ||
			containsFold(farm.FarmerName, q) {
			result.Farms = append(result.Farms, farm)
		}
	}

	for _, farm := range catalog {
		if farm == nil {
			continue
		}
		for _, crop := range farm.Crops {
			if containsFold(crop.Type, q) {
				result.Crops = append(result.Crops, models.CropMatch{Farm: farm, CropType: crop.Type})
			}
		}
	}

	return result
}

// Truncate keeps the first limit entries of each category and reports whether
// anything was cut. A non-positive limit keeps everything.
func Truncate(r models.SearchResult, limit int) (models.SearchResult, bool) {
	if limit <= 0 {
		return r, false
	}
	more := false
	if len(r.Farms) > limit {
		r.Farms = r.Farms[:limit]
		more = true
	}
	if len(r.Crops) > limit {
		r.Crops = r.Crops[:limit]
		more = true
	}
	return r, more
}

// containsFold expects needle already lower-cased.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
