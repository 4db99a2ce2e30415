package models

import (
	"time"

	"github.com/paulmach/orb"
)

// Quality is the grade a crop is sold under.
type Quality string

const (
	QualityStandard Quality = "Standard"
	QualityPremium  Quality = "Premium"
	QualityOrganic  Quality = "Organic"
)

// RawFarm holds unprocessed farm data as scraped from the marketplace or read
// from a spreadsheet. It is written to CSV before any cleaning.
type RawFarm struct {
	ID             string
	Name           string
	FarmerName     string
	Contact        string
	Location       string
	State          string
	Lat            string
	Lon            string
	Certified      string
	Certifications string
	Rating         string
	TotalOrders    string
	URL            string
	Crops          []RawCrop
	ScrapedAt      time.Time
	Source         string
}

// RawCrop is a crop row before parsing.
type RawCrop struct {
	Type         string
	Quantity     string
	Price        string
	Quality      string
	Availability string
	Forecast     string
}

// Crop is a sellable commodity offered by a farm. It has no identity outside
// its farm; elsewhere it is referenced by (farm id, crop type).
type Crop struct {
	Type         string  `json:"type" bson:"type"`
	Quantity     float64 `json:"quantity" bson:"quantity"`
	Unit         string  `json:"unit" bson:"unit"`
	PricePerUnit float64 `json:"pricePerUnit" bson:"pricePerUnit"`
	Quality      Quality `json:"quality" bson:"quality"`
	AvailableIn  int     `json:"availableIn" bson:"availableIn"`
	ForecastDate string  `json:"forecastDate,omitempty" bson:"forecastDate,omitempty"`
}

// Farm is the cleaned catalog record served by discovery.
type Farm struct {
	ID             string   `json:"id" bson:"_id"`
	Name           string   `json:"name" bson:"name"`
	FarmerName     string   `json:"farmerName" bson:"farmerName"`
	Contact        string   `json:"farmerContact" bson:"farmerContact"`
	Location       string   `json:"location" bson:"location"`
	State          string   `json:"state" bson:"state"`
	Lat            float64  `json:"lat" bson:"lat"`
	Lon            float64  `json:"lon" bson:"lon"`
	Certified      bool     `json:"certified" bson:"certified"`
	Certifications []string `json:"certifications" bson:"certifications"`
	Rating         float64  `json:"rating" bson:"rating"`
	TotalOrders    int      `json:"totalOrders" bson:"totalOrders"`
	Crops          []Crop   `json:"crops" bson:"crops"`
}

// Point returns the farm position with longitude on X and latitude on Y.
func (f *Farm) Point() orb.Point {
	return orb.Point{f.Lon, f.Lat}
}
