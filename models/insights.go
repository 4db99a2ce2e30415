package models

// NamedCount is one bar of a distribution chart.
type NamedCount struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AvailabilityBucket counts farms with at least one crop available in range.
type AvailabilityBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// InsightReport holds the computed analytics over a farm catalog.
type InsightReport struct {
	TotalFarms          int                  `json:"totalFarms"`
	CertifiedFarms      int                  `json:"certifiedFarms"`
	TotalCrops          int                  `json:"totalCrops"`
	DistinctCropTypes   int                  `json:"distinctCropTypes"`
	TotalOrders         int                  `json:"totalOrders"`
	AverageRating       float64              `json:"averageRating"`
	AveragePrice        float64              `json:"averagePrice"`
	MinPrice            float64              `json:"minPrice"`
	MaxPrice            float64              `json:"maxPrice"`
	CropDistribution    []NamedCount         `json:"cropDistribution"`
	StateDistribution   []NamedCount         `json:"stateDistribution"`
	AvailabilityBuckets []AvailabilityBucket `json:"availabilityBuckets"`
	TopFarms            []*Farm              `json:"topFarms"`
}

// FarmComparison is one column of the side-by-side farm comparison.
type FarmComparison struct {
	Farm                 *Farm   `json:"farm"`
	AveragePrice         float64 `json:"averagePrice"`
	EarliestAvailability int     `json:"earliestAvailability"`
	TotalQuantity        float64 `json:"totalQuantity"`
}

// NearbyFarm is a farm with its great-circle distance from a query point.
type NearbyFarm struct {
	Farm       *Farm   `json:"farm"`
	DistanceKm float64 `json:"distanceKm"`
}
