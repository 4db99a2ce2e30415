package services

import (
	"bytes"

	"agriconnect/models"
	"agriconnect/utils"
)

func newTestLogger() *utils.Logger {
	return utils.NewLoggerTo(&bytes.Buffer{}, &bytes.Buffer{}, utils.LevelError)
}

func farmAt(id string, lat, lon float64) *models.Farm {
	return &models.Farm{ID: id, Name: "Farm " + id, Lat: lat, Lon: lon}
}

func crop(cropType string, price float64, availableIn int) models.Crop {
	return models.Crop{Type: cropType, Quantity: 10, Unit: "tons", PricePerUnit: price, Quality: models.QualityStandard, AvailableIn: availableIn}
}

func sampleCatalog() []*models.Farm {
	return []*models.Farm{
		{
			ID: "f1", Name: "Green Valley Farm", FarmerName: "Ramesh Kumar", Location: "Ludhiana", State: "Punjab",
			Lat: 30.9, Lon: 75.85, Certified: true, Rating: 4.8, TotalOrders: 120,
			Crops: []models.Crop{crop("Wheat", 25000, 15), crop("Rice", 32000, 45)},
		},
		{
			ID: "f2", Name: "Sunrise Organics", FarmerName: "Anita Devi", Location: "Nashik", State: "Maharashtra",
			Lat: 20.0, Lon: 73.78, Certified: true, Rating: 4.6, TotalOrders: 80,
			Crops: []models.Crop{crop("Onion", 18000, 5)},
		},
		{
			ID: "f3", Name: "Deccan Fields", FarmerName: "Suresh Rao", Location: "Guntur", State: "Andhra Pradesh",
			Lat: 16.3, Lon: 80.45, Certified: false, Rating: 4.2, TotalOrders: 40,
			Crops: []models.Crop{crop("Chilli", 90000, 25), crop("Cotton", 60000, 70)},
		},
		{
			ID: "f4", Name: "Hilltop Estate", FarmerName: "Meera Nair", Location: "Wayanad", State: "Kerala",
			Lat: 11.6, Lon: 76.08, Certified: true, Rating: 4.9, TotalOrders: 60,
			Crops: []models.Crop{crop("Pepper", 450000, 10)},
		},
		{
			ID: "f5", Name: "Riverbank Farm", FarmerName: "Gurpreet Singh", Location: "Amritsar", State: "Punjab",
			Lat: 31.63, Lon: 74.87, Certified: false, Rating: 4.0, TotalOrders: 15,
			Crops: []models.Crop{crop("Wheat", 24000, 0)},
		},
	}
}

func ids(farms []*models.Farm) []string {
	out := make([]string, 0, len(farms))
	for _, f := range farms {
		out = append(out, f.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
