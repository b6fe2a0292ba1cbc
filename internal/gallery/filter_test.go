package gallery

import (
	"testing"

	"github.com/sss97133/nuke-sub012/internal/models"
)

func TestIsAuthoredByUser(t *testing.T) {
	tests := []struct {
		name string
		img  models.VehicleImage
		want bool
	}{
		{
			name: "direct user upload",
			img:  models.VehicleImage{Source: models.SourceUserUpload},
			want: true,
		},
		{
			name: "empty source",
			img:  models.VehicleImage{Source: ""},
			want: true,
		},
		{
			name: "apple photos sync",
			img:  models.VehicleImage{Source: models.SourceApplePhotos},
			want: true,
		},
		{
			name: "organization import",
			img:  models.VehicleImage{Source: "organization_import"},
			want: false,
		},
		{
			name: "external import",
			img:  models.VehicleImage{Source: "external_import"},
			want: false,
		},
		{
			name: "import source uppercase",
			img:  models.VehicleImage{Source: "EXTERNAL_IMPORT"},
			want: false,
		},
		{
			name: "import source mixed case with whitespace",
			img:  models.VehicleImage{Source: "  Organization_Import \n"},
			want: false,
		},
		{
			name: "exif source_url http",
			img: models.VehicleImage{
				Source:   models.SourceUserUpload,
				ExifData: models.ExifData{"source_url": "http://conceptcarz.com/vehicle/z123"},
			},
			want: false,
		},
		{
			name: "exif source_url https",
			img: models.VehicleImage{
				Source:   models.SourceUserUpload,
				ExifData: models.ExifData{"source_url": "https://glenmarch.com/car/abc"},
			},
			want: false,
		},
		{
			name: "exif source_url with leading whitespace",
			img: models.VehicleImage{
				ExifData: models.ExifData{"source_url": "  https://example.com/img.jpg"},
			},
			want: false,
		},
		{
			name: "exif source_url non-http scheme",
			img: models.VehicleImage{
				ExifData: models.ExifData{"source_url": "ftp://archive.example.com/img.jpg"},
			},
			want: true,
		},
		{
			name: "exif source_url empty string",
			img: models.VehicleImage{
				ExifData: models.ExifData{"source_url": ""},
			},
			want: true,
		},
		{
			name: "exif source_url whitespace only",
			img: models.VehicleImage{
				Source:   models.SourceUserUpload,
				ExifData: models.ExifData{"source_url": "  "},
			},
			want: true,
		},
		{
			name: "exif present without source_url",
			img: models.VehicleImage{
				ExifData: models.ExifData{"camera": "Canon EOS R5"},
			},
			want: true,
		},
		{
			name: "nil exif",
			img:  models.VehicleImage{Source: models.SourceUserUpload, ExifData: nil},
			want: true,
		},
		{
			name: "exif source_url bare http prefix",
			img: models.VehicleImage{
				ExifData: models.ExifData{"source_url": "http"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthoredByUser(&tt.img); got != tt.want {
				t.Errorf("IsAuthoredByUser() = %v, want %v (source=%q exif=%v)",
					got, tt.want, tt.img.Source, tt.img.ExifData)
			}
		})
	}
}

func TestFilterAuthored(t *testing.T) {
	images := []models.VehicleImage{
		{ID: "1", Source: models.SourceUserUpload},
		{ID: "2", Source: models.SourceExternalImport},
		{ID: "3", Source: "", ExifData: models.ExifData{"source_url": "https://x.test/1.jpg"}},
		{ID: "4", Source: models.SourceApplePhotos},
		{ID: "5", Source: models.SourceOrganizationImport},
	}

	got := FilterAuthored(images)

	if len(got) != 2 {
		t.Fatalf("FilterAuthored() kept %d images, want 2", len(got))
	}
	// Relative order must survive filtering
	if got[0].ID != "1" || got[1].ID != "4" {
		t.Errorf("FilterAuthored() order = [%s %s], want [1 4]", got[0].ID, got[1].ID)
	}
}

func TestFilterAuthoredIdempotent(t *testing.T) {
	images := []models.VehicleImage{
		{ID: "1", Source: models.SourceUserUpload},
		{ID: "2", Source: models.SourceExternalImport},
		{ID: "3", ExifData: models.ExifData{"source_url": "http://x.test"}},
	}

	once := FilterAuthored(images)
	twice := FilterAuthored(once)

	if len(once) != len(twice) {
		t.Fatalf("second pass changed result: %d != %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("second pass changed element %d: %s != %s", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestFilterAuthoredEmpty(t *testing.T) {
	if got := FilterAuthored(nil); len(got) != 0 {
		t.Errorf("FilterAuthored(nil) = %v, want empty", got)
	}
	if got := FilterAuthored([]models.VehicleImage{}); len(got) != 0 {
		t.Errorf("FilterAuthored(empty) = %v, want empty", got)
	}
}
