package importer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sss97133/nuke-sub012/internal/models"
)

// parseGeneric handles listing pages from hosts without a dedicated parser.
// It leans on Open Graph metadata, which most auction platforms emit.
func parseGeneric(doc *goquery.Document, listingURL string) (*models.Vehicle, []string) {
	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if strings.TrimSpace(title) == "" {
		title = doc.Find("h1").First().Text()
	}
	if strings.TrimSpace(title) == "" {
		title = doc.Find("title").Text()
	}
	vehicle := newVehicleFromTitle(title)
	vehicle.DiscoverySource = models.SourceExternalImport

	var imageURLs []string
	doc.Find(`meta[property="og:image"]`).Each(func(_ int, m *goquery.Selection) {
		if content, ok := m.Attr("content"); ok {
			imageURLs = append(imageURLs, content)
		}
	})

	// Gallery-looking containers first, then any substantial inline image
	imageURLs = append(imageURLs, collectImages(doc.Find(".gallery img, .carousel img, .slider img, figure img"))...)
	if len(imageURLs) == 0 {
		imageURLs = collectImages(doc.Find("img"))
	}

	return vehicle, imageURLs
}
