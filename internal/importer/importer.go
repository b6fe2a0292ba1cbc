package importer

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sss97133/nuke-sub012/internal/models"
	"github.com/sss97133/nuke-sub012/internal/ratelimit"
)

var (
	// ListingLimiter is exported for use by API handlers and the queue
	// worker. Listing pages are strictly capped to avoid blocks.
	ListingLimiter = ratelimit.NewListingLimiter(30)

	// Global circuit breaker to detect blocks across all importer instances
	circuitBreaker = NewCircuitBreaker(
		8,           // failureThreshold: 8 failures out of 20 requests
		1*time.Hour, // resetTimeout: wait 1 hour before retry
	)
)

// Importer fetches external auction listings and extracts vehicle photos.
// Imported records are attached to the configured runner account and tagged
// with their import provenance.
type Importer struct {
	client       *http.Client
	runnerUserID string
	sourceTag    string
	userAgent    string
	maxRetries   int
	retryDelay   time.Duration
	requestDelay time.Duration

	// The worker ticker, cron run, and admin trigger can all fetch through
	// one Importer; pacing state needs the lock.
	pacingMu        sync.Mutex
	lastRequestTime time.Time
}

type Config struct {
	RunnerUserID string
	// SourceTag marks imported images' provenance. Defaults to
	// external_import; partner feed runs use organization_import.
	SourceTag    string
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RequestDelay time.Duration
}

func NewImporter(runnerUserID string) *Importer {
	return NewImporterWithConfig(Config{
		RunnerUserID: runnerUserID,
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
		RequestDelay: 2 * time.Second,
	})
}

func NewImporterWithConfig(config Config) *Importer {
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Printf("Warning: Failed to create cookie jar: %v", err)
		jar = nil
	}

	if config.UserAgent == "" {
		config.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	}
	if config.SourceTag == "" {
		config.SourceTag = models.SourceExternalImport
	}

	return &Importer{
		client: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
		},
		runnerUserID: config.RunnerUserID,
		sourceTag:    config.SourceTag,
		userAgent:    config.UserAgent,
		maxRetries:   config.MaxRetries,
		retryDelay:   config.RetryDelay,
		requestDelay: config.RequestDelay,
	}
}

// rateLimit enforces minimum delay between requests. Holding the lock
// through the sleep also paces concurrent callers relative to each other.
func (im *Importer) rateLimit() {
	if im.requestDelay == 0 {
		return
	}

	im.pacingMu.Lock()
	defer im.pacingMu.Unlock()

	elapsed := time.Since(im.lastRequestTime)
	if elapsed < im.requestDelay {
		time.Sleep(im.requestDelay - elapsed)
	}
	im.lastRequestTime = time.Now()
}

// fetchHTML fetches a page with retries and exponential backoff
func (im *Importer) fetchHTML(pageURL string) (string, error) {
	if !circuitBreaker.CanProceed() {
		return "", fmt.Errorf("circuit breaker open: imports halted")
	}

	var lastErr error
	for attempt := 0; attempt <= im.maxRetries; attempt++ {
		if attempt > 0 {
			delay := im.retryDelay * time.Duration(1<<(attempt-1))
			log.Printf("[Importer] Retry %d/%d for %s after %v", attempt, im.maxRetries, pageURL, delay)
			time.Sleep(delay)
		}

		im.rateLimit()

		req, err := http.NewRequest("GET", pageURL, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", im.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := im.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			circuitBreaker.RecordSuccess()
			return string(body), readErr
		case resp.StatusCode == http.StatusNotFound:
			// Delisted page: not worth retrying
			circuitBreaker.RecordSuccess()
			return "", fmt.Errorf("permanent_fail: 404 for %s", pageURL)
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
			circuitBreaker.RecordFailure(resp.StatusCode)
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
		default:
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
		}
	}

	return "", fmt.Errorf("fetch failed after %d retries: %w", im.maxRetries, lastErr)
}

// ImportListing fetches one listing page and extracts the vehicle plus its
// photos. Parsing is dispatched on the listing host; unknown hosts go
// through the generic extractor.
func (im *Importer) ImportListing(listingURL string) (*models.Vehicle, []models.VehicleImage, error) {
	normalizedURL := normalizeListingURL(listingURL)
	log.Printf("[Importer] Importing listing %s", normalizedURL)

	htmlContent, err := im.fetchHTML(normalizedURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	vehicle, imageURLs := im.extractListing(doc, normalizedURL)

	// Some auction sites render galleries client-side; retry with a real
	// browser before giving up on images.
	if len(imageURLs) == 0 {
		rendered, renderErr := fetchHTMLWithHeadlessBrowser(normalizedURL, im.userAgent)
		if renderErr != nil {
			log.Printf("[Importer] Headless fallback failed for %s: %v", normalizedURL, renderErr)
		} else if renderedDoc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(rendered)); parseErr == nil {
			vehicle, imageURLs = im.extractListing(renderedDoc, normalizedURL)
		}
	}

	images := im.buildImageRecords(vehicle, imageURLs, normalizedURL)
	log.Printf("[Importer] Extracted vehicle=%q images=%d from %s", vehicle.DisplayName(), len(images), normalizedURL)

	return vehicle, images, nil
}

// extractListing dispatches parsing by host
func (im *Importer) extractListing(doc *goquery.Document, listingURL string) (*models.Vehicle, []string) {
	host := listingHost(listingURL)

	var vehicle *models.Vehicle
	var imageURLs []string

	switch {
	case strings.Contains(host, "conceptcarz.com"):
		vehicle, imageURLs = parseConceptcarz(doc, listingURL)
	case strings.Contains(host, "glenmarch.com"):
		vehicle, imageURLs = parseGlenmarch(doc, listingURL)
	default:
		vehicle, imageURLs = parseGeneric(doc, listingURL)
	}

	vehicle.UserID = im.runnerUserID
	vehicle.ListingURL = &listingURL
	vehicle.IsPublic = true
	if vehicle.DiscoverySource == "" {
		vehicle.DiscoverySource = models.SourceExternalImport
	}

	return vehicle, imageURLs
}

// buildImageRecords converts extracted URLs into provenance-tagged records.
// The runner account owns them; the source tag and exif source_url are what
// the gallery's authorship filter later keys on.
func (im *Importer) buildImageRecords(vehicle *models.Vehicle, imageURLs []string, listingURL string) []models.VehicleImage {
	seen := make(map[string]bool)
	images := make([]models.VehicleImage, 0, len(imageURLs))

	for _, imgURL := range imageURLs {
		resolved := resolveImageURL(listingURL, imgURL)
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true

		images = append(images, models.VehicleImage{
			UserID:     im.runnerUserID,
			ImageURL:   resolved,
			Source:     im.sourceTag,
			SourceURL:  listingURL,
			ImageType:  "general",
			IsExternal: true,
			ExifData: models.ExifData{
				"source_url": listingURL,
			},
		})
	}

	return images
}

// normalizeListingURL strips query parameters and trailing slashes so the
// same listing always dedups to one queue entry and one vehicle
func normalizeListingURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

func listingHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// resolveImageURL resolves a possibly relative image URL against the listing
func resolveImageURL(listingURL, imgURL string) string {
	imgURL = strings.TrimSpace(imgURL)
	if imgURL == "" || strings.HasPrefix(imgURL, "data:") {
		return ""
	}

	base, err := url.Parse(listingURL)
	if err != nil {
		return imgURL
	}
	ref, err := url.Parse(imgURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// GetCircuitBreakerStatus exposes breaker state for stats endpoints
func GetCircuitBreakerStatus() (isOpen bool, failures int, total int) {
	return circuitBreaker.GetStatus()
}
