package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"agriconnect/models"
)

// listParam accepts both repeated keys (?crop=a&crop=b) and comma lists (?crop=a,b).
func listParam(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func floatParam(c *gin.Context, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return f, nil
}

func intParam(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

func boolParam(c *gin.Context, key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, raw)
	}
	return b, nil
}

// criteriaFromQuery builds criteria over the marketplace defaults and
// validates the result.
func criteriaFromQuery(c *gin.Context) (models.Criteria, error) {
	crit := models.DefaultCriteria()
	var err error

	if crit.CertifiedOnly, err = boolParam(c, "certified", false); err != nil {
		return crit, err
	}
	crit.CropTypes = listParam(c, "crop")
	crit.States = listParam(c, "state")
	if crit.PriceRange.Min, err = floatParam(c, "minPrice", crit.PriceRange.Min); err != nil {
		return crit, err
	}
	if crit.PriceRange.Max, err = floatParam(c, "maxPrice", crit.PriceRange.Max); err != nil {
		return crit, err
	}
	if crit.AvailabilityDays, err = intParam(c, "days", crit.AvailabilityDays); err != nil {
		return crit, err
	}
	return crit, crit.Validate()
}

// boundsFromQuery reads minLat, minLon, maxLat and maxLon; missing edges fall
// back to the default map extent.
func boundsFromQuery(c *gin.Context) (orb.Bound, error) {
	def := models.IndiaBounds
	minLat, err := floatParam(c, "minLat", def.Bottom())
	if err != nil {
		return orb.Bound{}, err
	}
	minLon, err := floatParam(c, "minLon", def.Left())
	if err != nil {
		return orb.Bound{}, err
	}
	maxLat, err := floatParam(c, "maxLat", def.Top())
	if err != nil {
		return orb.Bound{}, err
	}
	maxLon, err := floatParam(c, "maxLon", def.Right())
	if err != nil {
		return orb.Bound{}, err
	}
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}, nil
}
