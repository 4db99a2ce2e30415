package marketplace

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"agriconnect/config"
	"agriconnect/utils"
)

const listingPage1 = `<html><body>
<section class="results">
  <article data-farm-id="f1" data-lat="30.9" data-lon="75.85">
    <a class="farm-link" href="/farms/f1"><h3 data-field="name"> Green Valley Farm </h3></a>
    <span data-field="farmer">Ramesh Kumar</span>
    <span data-field="location">Ludhiana</span>
    <span data-field="state">Punjab</span>
    <span data-field="rating">4.8</span>
    <span data-field="orders">120 orders</span>
    <span data-field="certified" class="badge">Certified</span>
  </article>
  <article data-farm-id="f2" data-lat="20.0" data-lon="73.78">
    <a href="https://market.test/farms/f2"><h3 data-field="name">Sunrise Organics</h3></a>
    <span data-field="state">Maharashtra</span>
    <span data-field="certified" data-value="no"></span>
  </article>
  <article data-farm-id="" data-lat="1" data-lon="1"><h3 data-field="name">Broken card</h3></article>
</section>
<nav><a rel="next" href="?page=2">Next</a></nav>
</body></html>`

const listingPage2 = `<html><body>
  <article data-farm-id="f2" data-lat="20.0" data-lon="73.78">
    <a href="/farms/f2"><h3 data-field="name">Sunrise Organics</h3></a>
  </article>
  <article data-farm-id="f3" data-lat="16.3" data-lon="80.45">
    <a href="/farms/f3"><h3 data-field="name">Deccan Fields</h3></a>
  </article>
</body></html>`

const detailF1 = `<html><body>
  <p data-field="contact">+91 98765 43210</p>
  <ul data-field="certifications"><li>NPOP</li><li> India Organic </li></ul>
  <table>
    <tr data-crop="Wheat">
      <td data-field="type">Wheat</td><td data-field="quantity">50 tons</td>
      <td data-field="price">₹25,000/ton</td><td data-field="quality">Premium</td>
      <td data-field="availability">Available in 15 days</td><td data-field="forecast">2024-11-01</td>
    </tr>
    <tr data-crop="Rice">
      <td data-field="quantity">20 tons</td><td data-field="price">₹32,000/ton</td>
    </tr>
  </table>
</body></html>`

func TestParseListingPage(t *testing.T) {
	farms, next, err := ParseListingPage(listingPage1, "https://market.test/farms?page=1")
	if err != nil {
		t.Fatal(err)
	}
	if next != "https://market.test/farms?page=2" {
		t.Errorf("next = %q", next)
	}
	if len(farms) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(farms))
	}

	f1 := farms[0]
	if f1.ID != "f1" || f1.Name != "Green Valley Farm" || f1.Lat != "30.9" || f1.Lon != "75.85" {
		t.Errorf("f1 = %+v", f1)
	}
	if f1.URL != "https://market.test/farms/f1" {
		t.Errorf("f1 url = %q", f1.URL)
	}
	if f1.Certified != "true" || f1.Rating != "4.8" || f1.TotalOrders != "120 orders" {
		t.Errorf("f1 badges = %q %q %q", f1.Certified, f1.Rating, f1.TotalOrders)
	}
	if farms[1].Certified != "no" || farms[1].URL != "https://market.test/farms/f2" {
		t.Errorf("f2 = %+v", farms[1])
	}
}

func TestParseListingPageLastPage(t *testing.T) {
	_, next, err := ParseListingPage(listingPage2, "https://market.test/farms?page=2")
	if err != nil {
		t.Fatal(err)
	}
	if next != "" {
		t.Errorf("last page should have no next link, got %q", next)
	}
}

func TestParseDetailPage(t *testing.T) {
	farms, _, _ := ParseListingPage(listingPage1, "https://market.test/")
	f1 := farms[0]
	if err := ParseDetailPage(detailF1, f1); err != nil {
		t.Fatal(err)
	}
	if f1.Contact != "+91 98765 43210" {
		t.Errorf("contact = %q", f1.Contact)
	}
	if f1.Certifications != "NPOP, India Organic" {
		t.Errorf("certifications = %q", f1.Certifications)
	}
	if len(f1.Crops) != 2 {
		t.Fatalf("expected 2 crops, got %d", len(f1.Crops))
	}
	if c := f1.Crops[0]; c.Type != "Wheat" || c.Price != "₹25,000/ton" || c.Quality != "Premium" || c.Forecast != "2024-11-01" {
		t.Errorf("crop 0 = %+v", c)
	}
	if f1.Crops[1].Type != "Rice" {
		t.Errorf("crop type should fall back to data-crop, got %q", f1.Crops[1].Type)
	}
}

type fakeSite struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func (s *fakeSite) fetch(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[url]++
	html, ok := s.pages[url]
	if !ok {
		return "", errors.New("404 " + url)
	}
	return html, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MarketplaceURL: "https://market.test/farms?page=1",
		PagesToScrape:  5,
		MaxConcurrency: 2,
		MaxRetries:     1,
	}
}

func TestScrapeFollowsPagesAndSkipsDuplicates(t *testing.T) {
	site := &fakeSite{
		hits: map[string]int{},
		pages: map[string]string{
			"https://market.test/farms?page=1": listingPage1,
			"https://market.test/farms?page=2": listingPage2,
			"https://market.test/farms/f1":     detailF1,
			"https://market.test/farms/f2":     `<html><body><p data-field="contact">n/a</p></body></html>`,
		},
	}
	logger := utils.NewLoggerTo(&bytes.Buffer{}, &bytes.Buffer{}, utils.LevelError)
	s := NewWithFetcher(testConfig(), logger, site.fetch)

	farms, err := s.LoadRaw(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, f := range farms {
		got = append(got, f.ID)
		if f.Source != "marketplace" || f.ScrapedAt.IsZero() {
			t.Errorf("farm %s not stamped: %q %v", f.ID, f.Source, f.ScrapedAt)
		}
	}
	if strings.Join(got, ",") != "f1,f2,f3" {
		t.Fatalf("farms = %v; want f1,f2,f3", got)
	}
	if len(farms[0].Crops) != 2 {
		t.Errorf("f1 should be enriched with 2 crops, got %d", len(farms[0].Crops))
	}
	if site.hits["https://market.test/farms/f2"] != 1 {
		t.Errorf("duplicate farm detail fetched %d times", site.hits["https://market.test/farms/f2"])
	}
}

func TestScrapeStopsOnPaginationLoop(t *testing.T) {
	loop := strings.Replace(listingPage2, "</body>", `<a rel="next" href="?page=1">Back</a></body>`, 1)
	site := &fakeSite{
		hits: map[string]int{},
		pages: map[string]string{
			"https://market.test/farms?page=1": listingPage1,
			"https://market.test/farms?page=2": loop,
		},
	}
	logger := utils.NewLoggerTo(&bytes.Buffer{}, &bytes.Buffer{}, utils.LevelError)
	s := NewWithFetcher(testConfig(), logger, site.fetch)

	farms, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(farms) != 3 {
		t.Errorf("expected 3 farms, got %d", len(farms))
	}
	if site.hits["https://market.test/farms?page=1"] != 1 {
		t.Errorf("first page fetched %d times", site.hits["https://market.test/farms?page=1"])
	}
}

func TestScrapeRequiresURL(t *testing.T) {
	cfg := testConfig()
	cfg.MarketplaceURL = ""
	logger := utils.NewLoggerTo(&bytes.Buffer{}, &bytes.Buffer{}, utils.LevelError)
	if _, err := NewWithFetcher(cfg, logger, nil).Scrape(context.Background()); err == nil {
		t.Error("expected an error without a marketplace URL")
	}
}
