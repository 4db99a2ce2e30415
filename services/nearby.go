package services

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"agriconnect/models"
)

// Nearby returns farms within radiusKm of center by great-circle distance,
// closest first. Equal distances keep catalog order.
func Nearby(catalog []*models.Farm, center orb.Point, radiusKm float64) []models.NearbyFarm {
	result := []models.NearbyFarm{}
	if radiusKm <= 0 {
		return result
	}

	for _, farm := range catalog {
		if farm == nil {
			continue
		}
		km := geo.DistanceHaversine(center, farm.Point()) / 1000
		if km <= radiusKm {
			result = append(result, models.NearbyFarm{Farm: farm, DistanceKm: round2(km)})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})
	return result
}
