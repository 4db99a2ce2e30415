package services

import "agriconnect/models"

// FilterFarms returns the farms in catalog that satisfy every constraint in c,
// in catalog order. A farm qualifies only if at least one of its crops is both
// inside the price range and available within c.AvailabilityDays, so farms
// without crops never qualify. A malformed range matches nothing.
func FilterFarms(catalog []*models.Farm, c models.Criteria) []*models.Farm {
	states := toSet(c.States)
	crops := toSet(c.CropTypes)

	result := make([]*models.Farm, 0, len(catalog))
	for _, farm := range catalog {
		if farm == nil {
			continue
		}
		if c.CertifiedOnly && !farm.Certified {
			continue
		}
		if len(states) > 0 {
			if _, ok := states[farm.State]; !ok {
				continue
			}
		}
		if len(crops) > 0 && !hasCropType(farm, crops) {
			continue
		}
		if !hasSellableCrop(farm, c.PriceRange, c.AvailabilityDays) {
			continue
		}
		result = append(result, farm)
	}
	return result
}

func hasCropType(farm *models.Farm, types map[string]struct{}) bool {
	for _, crop := range farm.Crops {
		if _, ok := types[crop.Type]; ok {
			return true
		}
	}
	return false
}

// hasSellableCrop requires price and availability to hold for the same crop.
func hasSellableCrop(farm *models.Farm, pr models.PriceRange, days int) bool {
	for _, crop := range farm.Crops {
		if crop.PricePerUnit >= pr.Min && crop.PricePerUnit <= pr.Max && crop.AvailableIn <= days {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
