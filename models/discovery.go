package models

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	ErrInvalidPriceRange   = errors.New("invalid price range")
	ErrInvalidAvailability = errors.New("invalid availability window")
)

// PriceRange is an inclusive price-per-unit interval.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Criteria is the set of active discovery constraints. It is rebuilt whole on
// every change. Empty CropTypes or States mean "no constraint".
type Criteria struct {
	CertifiedOnly    bool       `json:"certifiedOnly"`
	CropTypes        []string   `json:"cropTypes"`
	States           []string   `json:"states"`
	PriceRange       PriceRange `json:"priceRange"`
	AvailabilityDays int        `json:"availabilityDays"`
}

// DefaultCriteria matches the marketplace's "clear filters" state.
func DefaultCriteria() Criteria {
	return Criteria{
		PriceRange:       PriceRange{Min: 0, Max: 100000},
		AvailabilityDays: 60,
	}
}

// Validate reports malformed ranges. The filter itself never calls it and
// simply matches nothing for a malformed range.
func (c Criteria) Validate() error {
	if c.PriceRange.Min > c.PriceRange.Max {
		return fmt.Errorf("%w: min %.2f > max %.2f", ErrInvalidPriceRange, c.PriceRange.Min, c.PriceRange.Max)
	}
	if c.AvailabilityDays < 0 {
		return fmt.Errorf("%w: %d days", ErrInvalidAvailability, c.AvailabilityDays)
	}
	return nil
}

// ActiveCount is the number of selected certification, crop and state
// constraints, as shown on the filter badge.
func (c Criteria) ActiveCount() int {
	n := len(c.CropTypes) + len(c.States)
	if c.CertifiedOnly {
		n++
	}
	return n
}

// CropMatch is a (farm, crop type) pair produced by a crop-name match.
type CropMatch struct {
	Farm     *Farm  `json:"farm"`
	CropType string `json:"cropType"`
}

// SearchResult holds both result categories of a free-text query.
type SearchResult struct {
	Farms []*Farm     `json:"farms"`
	Crops []CropMatch `json:"crops"`
}

// Cluster groups nearby farms around an anchor for map display.
type Cluster struct {
	Anchor  *Farm   `json:"anchor"`
	Members []*Farm `json:"members"`
}

// Viewport is the drawing surface in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScreenPoint is a projected position on the viewport. Y grows downward.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClusterMarker is a cluster ready to be drawn.
type ClusterMarker struct {
	AnchorID       string      `json:"anchorId"`
	MemberIDs      []string    `json:"memberIds"`
	Position       ScreenPoint `json:"position"`
	Size           int         `json:"size"`
	CertifiedCount int         `json:"certifiedCount"`
}

// IndiaBounds approximates the geographic extent the marketplace map draws.
var IndiaBounds = orb.Bound{
	Min: orb.Point{68.0, 6.0},
	Max: orb.Point{98.0, 37.0},
}
