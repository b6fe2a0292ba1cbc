package importer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sss97133/nuke-sub012/internal/models"
)

// parseGlenmarch extracts a vehicle and its photos from a glenmarch.com
// auction result page
func parseGlenmarch(doc *goquery.Document, listingURL string) (*models.Vehicle, []string) {
	title := strings.TrimSpace(doc.Find(".car-detail h1, .lot-title, h1").First().Text())
	vehicle := newVehicleFromTitle(title)
	vehicle.DiscoverySource = "glenmarch"

	// Glenmarch puts the hammer price in a dedicated field
	priceText := strings.TrimSpace(doc.Find(".sold-price, .price, .hammer-price").First().Text())
	if priceText == "" {
		priceText = doc.Find(".car-detail").Text()
	}
	vehicle.SalePrice = parsePrice(priceText)

	var imageURLs []string
	doc.Find(".car-gallery a, .gallery a, a[data-lightbox]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && looksLikeImage(href) {
			imageURLs = append(imageURLs, href)
		}
	})

	if len(imageURLs) == 0 {
		imageURLs = collectImages(doc.Find(".car-gallery img, .gallery img, .car-detail img"))
	}

	return vehicle, imageURLs
}

func looksLikeImage(href string) bool {
	lower := strings.ToLower(href)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+"?") {
			return true
		}
	}
	return false
}
