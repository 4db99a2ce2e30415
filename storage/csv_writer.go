package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"agriconnect/models"
)

var csvHeader = []string{
	"source", "farm_id", "name", "farmer_name", "contact", "location", "state",
	"lat", "lon", "certified", "certifications", "rating", "total_orders", "url",
	"crop_type", "quantity", "price", "quality", "availability", "forecast", "scraped_at",
}

// CSVWriter writes raw (uncleaned) farms to a CSV file, one row per crop.
// Farms without crops get a single row with empty crop columns.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends the given raw farms to the CSV file.
func (c *CSVWriter) WriteRaw(farms []*models.RawFarm) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range farms {
		if f == nil {
			continue
		}
		crops := f.Crops
		if len(crops) == 0 {
			crops = []models.RawCrop{{}}
		}
		for _, crop := range crops {
			row := []string{
				f.Source, f.ID, f.Name, f.FarmerName, f.Contact, f.Location, f.State,
				f.Lat, f.Lon, f.Certified, f.Certifications, f.Rating, f.TotalOrders, f.URL,
				crop.Type, crop.Quantity, crop.Price, crop.Quality, crop.Availability, crop.Forecast,
				f.ScrapedAt.Format(time.RFC3339),
			}
			if err := c.writer.Write(row); err != nil {
				return fmt.Errorf("csv: write row: %w", err)
			}
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
