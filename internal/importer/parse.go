package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sss97133/nuke-sub012/internal/models"
)

var (
	titleYearRe = regexp.MustCompile(`^(18[89]\d|19\d{2}|20\d{2})\b`)
	priceRe     = regexp.MustCompile(`[\$£€]\s?([\d,]+)`)
)

// parseVehicleTitle splits an auction listing title such as
// "1967 Ferrari 275 GTB/4" into year, make, and model.
func parseVehicleTitle(title string) (*int, string, string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, "", ""
	}

	var year *int
	if m := titleYearRe.FindString(title); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			year = &y
			title = strings.TrimSpace(title[len(m):])
		}
	}

	parts := strings.Fields(title)
	if len(parts) == 0 {
		return year, "", ""
	}
	make := parts[0]
	model := strings.Join(parts[1:], " ")

	return year, make, model
}

// parsePrice extracts a sale price in whole currency units
func parsePrice(text string) *int {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	price, err := strconv.Atoi(digits)
	if err != nil || price == 0 {
		return nil
	}
	return &price
}

// collectImages gathers candidate image URLs from a selection, preferring
// full-size sources over lazy-load thumbnails
func collectImages(sel *goquery.Selection) []string {
	var urls []string
	sel.Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("data-src")
		if !ok || src == "" {
			src, ok = img.Attr("data-original")
		}
		if !ok || src == "" {
			src, _ = img.Attr("src")
		}
		src = strings.TrimSpace(src)
		if src == "" || isUIAsset(src) {
			return
		}
		urls = append(urls, src)
	})
	return urls
}

// isUIAsset filters out logos, icons, and tracking pixels
func isUIAsset(src string) bool {
	lower := strings.ToLower(src)
	for _, marker := range []string{"logo", "icon", "sprite", "pixel", "spacer", "avatar", "badge"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func newVehicleFromTitle(title string) *models.Vehicle {
	year, vmake, model := parseVehicleTitle(title)
	return &models.Vehicle{
		Year:  year,
		Make:  vmake,
		Model: model,
		Title: strings.TrimSpace(title),
	}
}
