package marketplace

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"agriconnect/models"
)

// Marketplace pages mark up farms with data attributes:
//
//	<article data-farm-id="f1" data-lat="30.9" data-lon="75.85">
//	  <a class="farm-link" href="/farms/f1"><h3 data-field="name">…</h3></a>
//	  <span data-field="farmer">…</span> <span data-field="location">…</span>
//	  <span data-field="state">…</span> <span data-field="rating">4.8</span>
//	  <span data-field="orders">120 orders</span> <span data-field="certified"></span>
//	</article>
//	<a rel="next" href="?page=2">Next</a>
//
// Detail pages carry contact, certifications and one [data-crop] row per crop.

func field(s *goquery.Selection, name string) string {
	return strings.TrimSpace(s.Find(`[data-field="` + name + `"]`).First().Text())
}

// ParseListingPage extracts farm cards and the next page URL from a listing
// page. Relative links are resolved against pageURL.
func ParseListingPage(html, pageURL string) ([]*models.RawFarm, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("parse listing page: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse page url %q: %w", pageURL, err)
	}

	var farms []*models.RawFarm
	doc.Find("[data-farm-id]").Each(func(_ int, card *goquery.Selection) {
		id, _ := card.Attr("data-farm-id")
		lat, _ := card.Attr("data-lat")
		lon, _ := card.Attr("data-lon")

		farm := &models.RawFarm{
			ID:          strings.TrimSpace(id),
			Name:        field(card, "name"),
			FarmerName:  field(card, "farmer"),
			Location:    field(card, "location"),
			State:       field(card, "state"),
			Lat:         lat,
			Lon:         lon,
			Rating:      field(card, "rating"),
			TotalOrders: field(card, "orders"),
		}

		if badge := card.Find(`[data-field="certified"]`); badge.Length() > 0 {
			farm.Certified = "true"
			if v, ok := badge.Attr("data-value"); ok {
				farm.Certified = v
			}
		}

		link := card.Find("a.farm-link").First()
		if link.Length() == 0 {
			link = card.Find("a[href]").First()
		}
		if href, ok := link.Attr("href"); ok {
			farm.URL = resolve(base, href)
		}

		farms = append(farms, farm)
	})

	var next string
	if href, ok := doc.Find(`a[rel="next"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		next = resolve(base, href)
	}
	return farms, next, nil
}

// ParseDetailPage fills contact, certifications and crops of farm from its
// detail page. Fields already present on farm are kept when the page lacks them.
func ParseDetailPage(html string, farm *models.RawFarm) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse detail page: %w", err)
	}
	page := doc.Selection

	if v := field(page, "contact"); v != "" {
		farm.Contact = v
	}
	if v := field(page, "farmer"); v != "" && farm.FarmerName == "" {
		farm.FarmerName = v
	}

	var certs []string
	page.Find(`[data-field="certifications"] li`).Each(func(_ int, li *goquery.Selection) {
		if t := strings.TrimSpace(li.Text()); t != "" {
			certs = append(certs, t)
		}
	})
	if len(certs) > 0 {
		farm.Certifications = strings.Join(certs, ", ")
	}

	var crops []models.RawCrop
	page.Find("[data-crop]").Each(func(_ int, row *goquery.Selection) {
		c := models.RawCrop{
			Type:         field(row, "type"),
			Quantity:     field(row, "quantity"),
			Price:        field(row, "price"),
			Quality:      field(row, "quality"),
			Availability: field(row, "availability"),
			Forecast:     field(row, "forecast"),
		}
		if c.Type == "" {
			c.Type, _ = row.Attr("data-crop")
		}
		crops = append(crops, c)
	})
	if len(crops) > 0 {
		farm.Crops = crops
	}
	return nil
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
