package services

import (
	"testing"

	"agriconnect/models"
)

func TestSearchBelowThreshold(t *testing.T) {
	for _, q := range []string{"", " ", "w", "  w  ", "ग"} {
		r := Search(sampleCatalog(), q)
		if len(r.Farms) != 0 || len(r.Crops) != 0 {
			t.Errorf("Search(%q) should be empty, got %d farms %d crops", q, len(r.Farms), len(r.Crops))
		}
		if r.Farms == nil || r.Crops == nil {
			t.Errorf("Search(%q) returned nil slices", q)
		}
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	catalog := sampleCatalog()
	base := Search(catalog, "punjab")
	for _, q := range []string{"PUNJAB", "Punjab", "  pUnJaB "} {
		r := Search(catalog, q)
		if !equalStrings(ids(r.Farms), ids(base.Farms)) {
			t.Errorf("Search(%q) farms = %v; want %v", q, ids(r.Farms), ids(base.Farms))
		}
	}
	if !equalStrings(ids(base.Farms), []string{"f1", "f5"}) {
		t.Errorf("Search(punjab) = %v; want [f1 f5]", ids(base.Farms))
	}
}

func TestSearchFields(t *testing.T) {
	tests := []struct {
		query string
		farms []string
	}{
		{"valley", []string{"f1"}},     // name
		{"nashik", []string{"f2"}},     // location
		{"kerala", []string{"f4"}},     // state
		{"meera", []string{"f4"}},      // farmer
		{"farm", []string{"f1", "f5"}}, // substring in several names
	}
	for _, tt := range tests {
		r := Search(sampleCatalog(), tt.query)
		if !equalStrings(ids(r.Farms), tt.farms) {
			t.Errorf("Search(%q) farms = %v; want %v", tt.query, ids(r.Farms), tt.farms)
		}
	}
}

func TestSearchCropOnlyMatch(t *testing.T) {
	catalog := []*models.Farm{{
		ID: "w1", Name: "Golden Acres", FarmerName: "Lakshmi", Location: "Indore", State: "Madhya Pradesh",
		Crops: []models.Crop{crop("Wheat", 20000, 10)},
	}}

	r := Search(catalog, "Wheat")
	if len(r.Farms) != 0 {
		t.Errorf("expected no farm matches, got %v", ids(r.Farms))
	}
	if len(r.Crops) != 1 {
		t.Fatalf("expected 1 crop match, got %d", len(r.Crops))
	}
	if r.Crops[0].Farm.ID != "w1" || r.Crops[0].CropType != "Wheat" {
		t.Errorf("unexpected crop match %+v", r.Crops[0])
	}
}

func TestSearchCropMatchesKeepCatalogOrder(t *testing.T) {
	r := Search(sampleCatalog(), "whe")
	if len(r.Crops) != 2 {
		t.Fatalf("expected 2 wheat matches, got %d", len(r.Crops))
	}
	if r.Crops[0].Farm.ID != "f1" || r.Crops[1].Farm.ID != "f5" {
		t.Errorf("crop matches out of order: %s, %s", r.Crops[0].Farm.ID, r.Crops[1].Farm.ID)
	}
}

func TestTruncate(t *testing.T) {
	r := Search(sampleCatalog(), "an")
	total := len(r.Farms)
	if total < 3 {
		t.Fatalf("fixture should yield at least 3 farm matches, got %d", total)
	}

	cut, more := Truncate(r, 2)
	if !more || len(cut.Farms) != 2 {
		t.Errorf("Truncate(2) = %d farms, more=%v", len(cut.Farms), more)
	}

	all, more := Truncate(r, 0)
	if more || len(all.Farms) != total {
		t.Errorf("Truncate(0) should keep all %d, got %d more=%v", total, len(all.Farms), more)
	}

	_, more = Truncate(r, total+len(r.Crops))
	if more {
		t.Error("Truncate above both sizes should not report more")
	}
}
