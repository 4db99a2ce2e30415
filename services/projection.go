package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"agriconnect/models"
)

// ErrInvalidBounds is returned when a bounding box has zero (or non-finite)
// width or height.
var ErrInvalidBounds = errors.New("invalid bounds")

// ValidateBounds rejects bounding boxes the projector cannot normalise over.
func ValidateBounds(b orb.Bound) error {
	lonSpan := b.Right() - b.Left()
	latSpan := b.Top() - b.Bottom()
	if lonSpan == 0 || latSpan == 0 || !finite(lonSpan) || !finite(latSpan) {
		return fmt.Errorf("%w: lon %.4f..%.4f, lat %.4f..%.4f",
			ErrInvalidBounds, b.Left(), b.Right(), b.Bottom(), b.Top())
	}
	return nil
}

// Project maps a coordinate onto the viewport. Longitude is scaled into
// [padding, width-padding] and latitude into the same vertical band, flipped
// so north is up. Coordinates outside bounds land off-canvas.
func Project(lat, lon float64, bounds orb.Bound, vp models.Viewport, padding float64) (models.ScreenPoint, error) {
	if err := ValidateBounds(bounds); err != nil {
		return models.ScreenPoint{}, err
	}
	return project(lat, lon, bounds, vp, padding), nil
}

func project(lat, lon float64, b orb.Bound, vp models.Viewport, padding float64) models.ScreenPoint {
	nx := (lon - b.Left()) / (b.Right() - b.Left())
	ny := (lat - b.Bottom()) / (b.Top() - b.Bottom())
	return models.ScreenPoint{
		X: nx*(vp.Width-2*padding) + padding,
		Y: vp.Height - ny*(vp.Height-2*padding) - padding,
	}
}

// ProjectClusters places each cluster at its anchor's position.
func ProjectClusters(clusters []models.Cluster, bounds orb.Bound, vp models.Viewport, padding float64) ([]models.ClusterMarker, error) {
	if err := ValidateBounds(bounds); err != nil {
		return nil, err
	}

	markers := make([]models.ClusterMarker, 0, len(clusters))
	for _, c := range clusters {
		ids := make([]string, 0, len(c.Members))
		certified := 0
		for _, m := range c.Members {
			ids = append(ids, m.ID)
			if m.Certified {
				certified++
			}
		}
		markers = append(markers, models.ClusterMarker{
			AnchorID:       c.Anchor.ID,
			MemberIDs:      ids,
			Position:       project(c.Anchor.Lat, c.Anchor.Lon, bounds, vp, padding),
			Size:           len(c.Members),
			CertifiedCount: certified,
		})
	}
	return markers, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
