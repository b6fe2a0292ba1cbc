package gallery

import (
	"strings"

	"github.com/sss97133/nuke-sub012/internal/models"
)

// IsAuthoredByUser reports whether an image record was genuinely captured by
// the account it belongs to. Bulk-import pipelines attach records to a
// runner account for access-control bookkeeping, so user_id alone cannot be
// trusted; this predicate compensates with two provenance heuristics.
func IsAuthoredByUser(img *models.VehicleImage) bool {
	src := strings.ToLower(strings.TrimSpace(img.Source))
	if src == models.SourceOrganizationImport || src == models.SourceExternalImport {
		return false
	}

	// Imported records also record the external page they were pulled from
	// in exif metadata. A literal "http" prefix covers http:// and https://.
	url := strings.TrimSpace(img.ExifData["source_url"])
	if strings.HasPrefix(url, "http") {
		return false
	}

	return true
}

// FilterAuthored removes non-authored records from a raw result set.
// Applying it twice yields the same set as once.
func FilterAuthored(images []models.VehicleImage) []models.VehicleImage {
	filtered := make([]models.VehicleImage, 0, len(images))
	for i := range images {
		if IsAuthoredByUser(&images[i]) {
			filtered = append(filtered, images[i])
		}
	}
	return filtered
}
