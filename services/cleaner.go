package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"agriconnect/models"
	"agriconnect/utils"
)

var (
	// numberRegexp captures the first numeric value, commas allowed
	numberRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// ratingRegexp captures a numeric rating in the 0.0–5.0 range
	ratingRegexp = regexp.MustCompile(`\b([0-5](?:\.\d{1,2})?)\b`)
	// unitRegexp captures the unit after "/" or "per", e.g. "₹25,000/ton"
	unitRegexp = regexp.MustCompile(`(?:/|\bper\s+)\s*([a-z]+)`)
	// quantityUnitRegexp captures the unit trailing a quantity, e.g. "50 tons"
	quantityUnitRegexp = regexp.MustCompile(`\d\s*([a-z]+)`)
)

var unitAliases = map[string]string{
	"t":         "tons",
	"ton":       "tons",
	"tons":      "tons",
	"tonne":     "tons",
	"tonnes":    "tons",
	"kg":        "kg",
	"kgs":       "kg",
	"kilo":      "kg",
	"kilos":     "kg",
	"kilogram":  "kg",
	"kilograms": "kg",
	"q":         "quintals",
	"qtl":       "quintals",
	"quintal":   "quintals",
	"quintals":  "quintals",
}

// Cleaner transforms RawFarms into clean, validated Farms.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean processes raw farms and returns cleaned records in input order.
// Rows sharing an id are merged: the first row wins for farm fields and the
// crops of later rows are appended.
func (c *Cleaner) Clean(raw []*models.RawFarm) []*models.Farm {
	byID := make(map[string]*models.Farm)
	result := make([]*models.Farm, 0, len(raw))

	for _, r := range raw {
		if r == nil {
			continue
		}
		id := strings.TrimSpace(r.ID)
		if id == "" {
			c.logger.Warn("[cleaner] Dropping farm with empty id: %s", r.Name)
			continue
		}

		if existing, dup := byID[id]; dup {
			existing.Crops = append(existing.Crops, c.cleanCrops(id, r.Crops)...)
			c.logger.Debug("[cleaner] Merged duplicate farm id %s", id)
			continue
		}

		lat, lon, ok := parseCoordinates(r.Lat, r.Lon)
		if !ok {
			c.logger.Warn("[cleaner] Dropping farm %s with invalid coordinates (%q, %q)", id, r.Lat, r.Lon)
			continue
		}

		farm := &models.Farm{
			ID:             id,
			Name:           normaliseText(r.Name),
			FarmerName:     normaliseText(r.FarmerName),
			Contact:        normaliseText(r.Contact),
			Location:       normaliseText(r.Location),
			State:          normaliseText(r.State),
			Lat:            lat,
			Lon:            lon,
			Certified:      parseBool(r.Certified),
			Certifications: splitList(r.Certifications),
			Rating:         c.parseRating(r.Rating),
			TotalOrders:    parseCount(r.TotalOrders),
			Crops:          c.cleanCrops(id, r.Crops),
		}

		byID[id] = farm
		result = append(result, farm)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d farms (dropped or merged %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

func (c *Cleaner) cleanCrops(farmID string, raw []models.RawCrop) []models.Crop {
	crops := make([]models.Crop, 0, len(raw))
	for _, rc := range raw {
		cropType := normaliseText(rc.Type)
		if cropType == "" {
			c.logger.Debug("[cleaner] %s: crop without type skipped", farmID)
			continue
		}

		price, priceUnit := c.parsePrice(rc.Price)
		qty, qtyUnit := parseQuantity(rc.Quantity)
		if price <= 0 || qty <= 0 {
			c.logger.Debug("[cleaner] %s: crop %s dropped (price %q, quantity %q)",
				farmID, cropType, rc.Price, rc.Quantity)
			continue
		}

		unit := qtyUnit
		if unit == "" {
			unit = priceUnit
		}

		crops = append(crops, models.Crop{
			Type:         cropType,
			Quantity:     qty,
			Unit:         unit,
			PricePerUnit: price,
			Quality:      parseQuality(rc.Quality),
			AvailableIn:  parseAvailability(rc.Availability),
			ForecastDate: strings.TrimSpace(rc.Forecast),
		})
	}
	return crops
}

// parsePrice extracts the price per unit and the unit it is quoted in.
// Examples:
//
//	"₹25,000/ton"      → 25000, "tons"
//	"Rs 1800 per qtl"  → 1800, "quintals"
//	"40"               → 40, ""
func (c *Cleaner) parsePrice(raw string) (float64, string) {
	raw = strings.ToLower(raw)
	match := numberRegexp.FindString(raw)
	if match == "" {
		return 0, ""
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, ""
	}

	var unit string
	if m := unitRegexp.FindStringSubmatch(raw); len(m) == 2 {
		unit = normaliseUnit(m[1])
	}
	return price, unit
}

// parseRating extracts a 0.0–5.0 numeric rating from a raw string.
func (c *Cleaner) parseRating(raw string) float64 {
	match := ratingRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	if val < 0 || val > 5 {
		return 0
	}
	return val
}

func parseQuantity(raw string) (float64, string) {
	raw = strings.ToLower(raw)
	match := numberRegexp.FindString(raw)
	if match == "" {
		return 0, ""
	}
	qty, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, ""
	}

	var unit string
	if m := quantityUnitRegexp.FindStringSubmatch(raw); len(m) == 2 {
		unit = normaliseUnit(m[1])
	}
	return qty, unit
}

func parseCoordinates(rawLat, rawLon string) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rawLon), 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// parseAvailability turns "Available in 15 days", "2 weeks" or "now" into days.
func parseAvailability(raw string) int {
	raw = strings.ToLower(strings.TrimSpace(raw))
	match := numberRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	switch {
	case strings.Contains(raw, "week"):
		n *= 7
	case strings.Contains(raw, "month"):
		n *= 30
	}
	return int(math.Round(n))
}

func parseQuality(raw string) models.Quality {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "premium":
		return models.QualityPremium
	case "organic":
		return models.QualityOrganic
	default:
		return models.QualityStandard
	}
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1", "certified":
		return true
	}
	return false
}

func parseCount(raw string) int {
	match := numberRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = normaliseText(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normaliseUnit(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if u, ok := unitAliases[s]; ok {
		return u
	}
	return s
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
