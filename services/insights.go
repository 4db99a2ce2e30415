package services

import (
	"fmt"
	"sort"
	"strings"

	"agriconnect/models"
	"agriconnect/utils"
)

const (
	topCropTypes = 8
	topStates    = 6
	topFarms     = 5
)

type availabilityRange struct {
	label    string
	min, max int
}

// Buckets overlap per farm: a farm is counted in every range one of its crops
// falls in.
var availabilityRanges = []availabilityRange{
	{"0-7 days", -1 << 31, 7},
	{"8-15 days", 8, 15},
	{"16-30 days", 16, 30},
	{"30+ days", 31, 1<<31 - 1},
}

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the marketplace dashboard over farms.
func (s *InsightService) Generate(farms []*models.Farm) *models.InsightReport {
	report := &models.InsightReport{
		CropDistribution:    []models.NamedCount{},
		StateDistribution:   []models.NamedCount{},
		AvailabilityBuckets: make([]models.AvailabilityBucket, len(availabilityRanges)),
		TopFarms:            []*models.Farm{},
	}
	for i, r := range availabilityRanges {
		report.AvailabilityBuckets[i].Range = r.label
	}

	farms = compactFarms(farms)
	if len(farms) == 0 {
		return report
	}

	report.TotalFarms = len(farms)

	cropQty := make(map[string]float64)
	stateCount := make(map[string]float64)
	var ratingSum, priceSum float64
	var priced int

	for _, f := range farms {
		if f.Certified {
			report.CertifiedFarms++
		}
		report.TotalCrops += len(f.Crops)
		report.TotalOrders += f.TotalOrders
		ratingSum += f.Rating
		if f.State != "" {
			stateCount[f.State]++
		}

		inBucket := make([]bool, len(availabilityRanges))
		for _, c := range f.Crops {
			cropQty[c.Type] += c.Quantity

			if c.PricePerUnit > 0 {
				if priced == 0 || c.PricePerUnit < report.MinPrice {
					report.MinPrice = c.PricePerUnit
				}
				if c.PricePerUnit > report.MaxPrice {
					report.MaxPrice = c.PricePerUnit
				}
				priceSum += c.PricePerUnit
				priced++
			}

			for i, r := range availabilityRanges {
				if c.AvailableIn >= r.min && c.AvailableIn <= r.max {
					inBucket[i] = true
				}
			}
		}
		for i, hit := range inBucket {
			if hit {
				report.AvailabilityBuckets[i].Count++
			}
		}
	}

	report.DistinctCropTypes = len(cropQty)
	report.AverageRating = round2(ratingSum / float64(len(farms)))
	if priced > 0 {
		report.AveragePrice = round2(priceSum / float64(priced))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}
	report.CropDistribution = topCounts(cropQty, topCropTypes)
	report.StateDistribution = topCounts(stateCount, topStates)

	ranked := append([]*models.Farm(nil), farms...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].TotalOrders > ranked[j].TotalOrders
	})
	if len(ranked) > topFarms {
		ranked = ranked[:topFarms]
	}
	report.TopFarms = ranked

	s.logger.Debug("[insights] %d farms, %d crops, %d crop types",
		report.TotalFarms, report.TotalCrops, report.DistinctCropTypes)
	return report
}

// StateDensity counts farms per state for the map's heat layer, densest first.
func StateDensity(farms []*models.Farm) []models.NamedCount {
	counts := make(map[string]float64)
	for _, f := range farms {
		if f != nil && f.State != "" {
			counts[f.State]++
		}
	}
	return topCounts(counts, 0)
}

// topCounts sorts by value descending, then name; limit <= 0 keeps all.
func topCounts(m map[string]float64, limit int) []models.NamedCount {
	out := make([]models.NamedCount, 0, len(m))
	for name, v := range m {
		out = append(out, models.NamedCount{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🌾 FARM MARKETPLACE INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total farms      : \033[1m%d\033[0m\n", r.TotalFarms)
	fmt.Printf("  Certified farms  : \033[1m%d\033[0m\n", r.CertifiedFarms)
	fmt.Printf("  Crops listed     : \033[1m%d\033[0m (%d types)\n", r.TotalCrops, r.DistinctCropTypes)
	fmt.Printf("  Completed orders : \033[1m%d\033[0m\n", r.TotalOrders)
	fmt.Printf("  Average rating   : \033[1m%.2f ★\033[0m\n", r.AverageRating)
	fmt.Println()

	fmt.Printf("\033[1;33m  Price Statistics (per unit)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price : \033[1;32m₹%.2f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m₹%.2f\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m₹%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top Crops by Quantity\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, c := range r.CropDistribution {
		fmt.Printf("  %-30s %.0f\n", truncate(c.Name, 28), c.Value)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Availability\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, b := range r.AvailabilityBuckets {
		fmt.Printf("  %-12s %s (%d)\n", b.Range, strings.Repeat("█", b.Count), b.Count)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top Rated Farms\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopFarms) == 0 {
		fmt.Printf("  No farms found\n")
	} else {
		for i, f := range r.TopFarms {
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%.1f ★\033[0m (%d orders)\n",
				i+1, truncate(f.Name, 38), f.Rating, f.TotalOrders)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Farms by State\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.StateDistribution) == 0 {
		fmt.Printf("  No state data\n")
	} else {
		for _, sc := range r.StateDistribution {
			n := int(sc.Value)
			fmt.Printf("  %-30s %s (%d)\n", truncate(sc.Name, 28), strings.Repeat("█", n), n)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
