package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"agriconnect/models"
)

// XLSXCatalog reads farm rows from a spreadsheet export, one row per crop with
// the farm columns repeated. Headers are matched loosely: case, spaces,
// dashes and underscores are ignored and common aliases are accepted.
type XLSXCatalog struct {
	path  string
	sheet string
}

// NewXLSXCatalog reads sheet from path; an empty sheet means the first one.
func NewXLSXCatalog(path, sheet string) *XLSXCatalog {
	return &XLSXCatalog{path: path, sheet: sheet}
}

func normHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

func (x *XLSXCatalog) LoadRaw(ctx context.Context) ([]*models.RawFarm, error) {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %q: %w", x.path, err)
	}
	defer f.Close()

	sheet := x.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx: %q has no sheets", x.path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []*models.RawFarm{}, nil
	}

	hmap := map[string]int{}
	for i, h := range rows[0] {
		hmap[normHeader(h)] = i
	}
	findAny := func(keys ...string) int {
		for _, k := range keys {
			if idx, ok := hmap[normHeader(k)]; ok {
				return idx
			}
		}
		return -1
	}

	cID := findAny("farm_id", "id", "farmid")
	cName := findAny("name", "farm_name", "farm")
	cFarmer := findAny("farmer_name", "farmer", "owner")
	cContact := findAny("farmer_contact", "contact", "phone")
	cLocation := findAny("location", "district", "village", "city")
	cState := findAny("state", "region")
	cLat := findAny("lat", "latitude")
	cLon := findAny("lon", "lng", "long", "longitude")
	cCertified := findAny("certified", "is_certified")
	cCerts := findAny("certifications", "certification", "certs")
	cRating := findAny("rating", "stars")
	cOrders := findAny("total_orders", "orders", "order_count")
	cURL := findAny("url", "link")
	cCrop := findAny("crop_type", "crop", "commodity")
	cQty := findAny("quantity", "qty", "volume")
	cPrice := findAny("price_per_unit", "price", "rate")
	cQuality := findAny("quality", "grade")
	cAvail := findAny("available_in", "availability", "available")
	cForecast := findAny("forecast_date", "forecast", "harvest_date")

	if cID == -1 || cLat == -1 || cLon == -1 {
		return nil, fmt.Errorf("xlsx: sheet %q missing required columns, found headers: %v; need at least: farm_id, lat, lon", sheet, rows[0])
	}

	scrapedAt := time.Now()
	out := make([]*models.RawFarm, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		get := func(idx int) string {
			if idx < 0 || idx >= len(rec) {
				return ""
			}
			return rec[idx]
		}
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}

		farm := &models.RawFarm{
			ID:             get(cID),
			Name:           get(cName),
			FarmerName:     get(cFarmer),
			Contact:        get(cContact),
			Location:       get(cLocation),
			State:          get(cState),
			Lat:            get(cLat),
			Lon:            get(cLon),
			Certified:      get(cCertified),
			Certifications: get(cCerts),
			Rating:         get(cRating),
			TotalOrders:    get(cOrders),
			URL:            get(cURL),
			ScrapedAt:      scrapedAt,
			Source:         "xlsx",
		}
		if cropType := get(cCrop); strings.TrimSpace(cropType) != "" {
			farm.Crops = []models.RawCrop{{
				Type:         cropType,
				Quantity:     get(cQty),
				Price:        get(cPrice),
				Quality:      get(cQuality),
				Availability: get(cAvail),
				Forecast:     get(cForecast),
			}}
		}
		out = append(out, farm)
	}
	return out, nil
}
