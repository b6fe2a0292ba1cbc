package importer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sss97133/nuke-sub012/internal/models"
)

// parseConceptcarz extracts a vehicle and its photo gallery from a
// conceptcarz.com vehicle page
func parseConceptcarz(doc *goquery.Document, listingURL string) (*models.Vehicle, []string) {
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").Text())
	}
	vehicle := newVehicleFromTitle(title)
	vehicle.DiscoverySource = "conceptcarz"

	// Auction result blocks carry the realized price when present
	doc.Find(".auction-result, .vehicle-profile").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if price := parsePrice(s.Text()); price != nil {
			vehicle.SalePrice = price
			return false
		}
		return true
	})

	var imageURLs []string

	// Gallery thumbnails link to the full-size photo pages
	doc.Find("a.vehicleThumb img, .photo-gallery img, #gallery img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok {
			// Thumbnail paths swap to full-size by dropping the /t/ segment
			full := strings.Replace(src, "/t/", "/", 1)
			imageURLs = append(imageURLs, full)
		}
	})

	if len(imageURLs) == 0 {
		imageURLs = collectImages(doc.Find("img[src*='/images/'], img[data-src*='/images/']"))
	}

	return vehicle, imageURLs
}
