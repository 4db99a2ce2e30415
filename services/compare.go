package services

import (
	"errors"
	"fmt"

	"agriconnect/models"
)

// MaxCompare is the most farms that can be compared side by side.
const MaxCompare = 4

var ErrTooManyToCompare = errors.New("too many farms to compare")

// Compare summarises the farms named by ids, in the order requested. Unknown
// and repeated ids are skipped.
func Compare(catalog []*models.Farm, ids []string) ([]models.FarmComparison, error) {
	seen := make(map[string]struct{}, len(ids))
	distinct := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	if len(distinct) > MaxCompare {
		return nil, fmt.Errorf("%w: %d requested, limit %d", ErrTooManyToCompare, len(distinct), MaxCompare)
	}

	byID := make(map[string]*models.Farm, len(catalog))
	for _, f := range catalog {
		if f != nil {
			if _, dup := byID[f.ID]; !dup {
				byID[f.ID] = f
			}
		}
	}

	out := make([]models.FarmComparison, 0, len(distinct))
	for _, id := range distinct {
		farm, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, summarise(farm))
	}
	return out, nil
}

func summarise(f *models.Farm) models.FarmComparison {
	cmp := models.FarmComparison{Farm: f}
	if len(f.Crops) == 0 {
		return cmp
	}

	var priceSum float64
	cmp.EarliestAvailability = f.Crops[0].AvailableIn
	for _, c := range f.Crops {
		priceSum += c.PricePerUnit
		cmp.TotalQuantity += c.Quantity
		if c.AvailableIn < cmp.EarliestAvailability {
			cmp.EarliestAvailability = c.AvailableIn
		}
	}
	cmp.AveragePrice = round2(priceSum / float64(len(f.Crops)))
	return cmp
}
