package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/sss97133/nuke-sub012/internal/gallery"
	"github.com/sss97133/nuke-sub012/internal/models"
)

type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the vehicle and image tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS vehicles (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		year INTEGER,
		make VARCHAR(100),
		model VARCHAR(150),
		title TEXT,
		listing_url VARCHAR(500) UNIQUE,
		sale_price INTEGER,
		discovery_source VARCHAR(50),
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS vehicle_images (
		id VARCHAR(36) PRIMARY KEY,
		vehicle_id VARCHAR(36),
		user_id VARCHAR(36) NOT NULL,
		image_url TEXT NOT NULL,
		storage_path VARCHAR(500),
		source VARCHAR(50),
		source_url TEXT,
		image_type VARCHAR(50),
		is_external BOOLEAN NOT NULL DEFAULT FALSE,
		file_hash VARCHAR(64),
		filename VARCHAR(255),
		taken_at TIMESTAMP,
		exif_data JSONB,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- Gallery query path: user_id equality plus created_at descending
	CREATE INDEX IF NOT EXISTS idx_vehicle_images_user_created
		ON vehicle_images(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_vehicle_images_vehicle
		ON vehicle_images(vehicle_id);
	CREATE INDEX IF NOT EXISTS idx_vehicle_images_hash
		ON vehicle_images(file_hash);
	CREATE INDEX IF NOT EXISTS idx_vehicles_user
		ON vehicles(user_id);
	`

	_, err := db.conn.Exec(query)
	return err
}

// ListUserImages is the raw SQL twin of GormDB.ListUserImages: same filter,
// join gate, ordering, and cap
func (db *DB) ListUserImages(ctx context.Context, userID string, includePrivate bool, limit int) ([]models.VehicleImage, error) {
	if limit <= 0 || limit > gallery.MaxRecords {
		limit = gallery.MaxRecords
	}

	query := `
	SELECT i.id, i.vehicle_id, i.user_id, i.image_url, i.storage_path,
	       i.source, i.source_url, i.image_type, i.is_external, i.file_hash,
	       i.filename, i.taken_at, i.exif_data, i.created_at, i.updated_at,
	       v.id, v.user_id, v.year, v.make, v.model, v.title, v.is_public
	FROM vehicle_images i
	LEFT JOIN vehicles v ON v.id = i.vehicle_id
	WHERE i.user_id = $1
	  AND ($2 OR v.id IS NULL OR v.is_public = TRUE)
	ORDER BY i.created_at DESC
	LIMIT $3`

	rows, err := db.conn.QueryContext(ctx, query, userID, includePrivate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.VehicleImage
	for rows.Next() {
		img, err := scanImageWithVehicle(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}

	return images, rows.Err()
}

func scanImageWithVehicle(rows *sql.Rows) (*models.VehicleImage, error) {
	var img models.VehicleImage
	var vehicleID, storagePath, source, sourceURL, imageType, fileHash, filename sql.NullString
	var takenAt sql.NullTime
	var vID, vUserID, vMake, vModel, vTitle sql.NullString
	var vYear sql.NullInt64
	var vIsPublic sql.NullBool

	err := rows.Scan(
		&img.ID, &vehicleID, &img.UserID, &img.ImageURL, &storagePath,
		&source, &sourceURL, &imageType, &img.IsExternal, &fileHash,
		&filename, &takenAt, &img.ExifData, &img.CreatedAt, &img.UpdatedAt,
		&vID, &vUserID, &vYear, &vMake, &vModel, &vTitle, &vIsPublic,
	)
	if err != nil {
		return nil, err
	}

	img.VehicleID = vehicleID.String
	img.StoragePath = storagePath.String
	img.Source = source.String
	img.SourceURL = sourceURL.String
	img.ImageType = imageType.String
	img.FileHash = fileHash.String
	img.Filename = filename.String
	if takenAt.Valid {
		t := takenAt.Time
		img.TakenAt = &t
	}

	if vID.Valid {
		vehicle := &models.Vehicle{
			ID:       vID.String,
			UserID:   vUserID.String,
			Make:     vMake.String,
			Model:    vModel.String,
			Title:    vTitle.String,
			IsPublic: vIsPublic.Bool,
		}
		if vYear.Valid {
			year := int(vYear.Int64)
			vehicle.Year = &year
		}
		img.Vehicle = vehicle
	}

	return &img, nil
}

// GetVehicleByID retrieves a vehicle by ID
func (db *DB) GetVehicleByID(id string) (*models.Vehicle, error) {
	query := `
	SELECT id, user_id, year, make, model, title, listing_url, sale_price,
	       discovery_source, is_public, created_at, updated_at
	FROM vehicles WHERE id = $1`

	var v models.Vehicle
	var year, salePrice sql.NullInt64
	var listingURL, discoverySource sql.NullString

	err := db.conn.QueryRow(query, id).Scan(
		&v.ID, &v.UserID, &year, &v.Make, &v.Model, &v.Title, &listingURL,
		&salePrice, &discoverySource, &v.IsPublic, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if year.Valid {
		y := int(year.Int64)
		v.Year = &y
	}
	if salePrice.Valid {
		p := int(salePrice.Int64)
		v.SalePrice = &p
	}
	if listingURL.Valid {
		v.ListingURL = &listingURL.String
	}
	v.DiscoverySource = discoverySource.String

	return &v, nil
}

// GetVehicleImages retrieves all images for a vehicle, newest first
func (db *DB) GetVehicleImages(vehicleID string) ([]models.VehicleImage, error) {
	query := `
	SELECT i.id, i.vehicle_id, i.user_id, i.image_url, i.storage_path,
	       i.source, i.source_url, i.image_type, i.is_external, i.file_hash,
	       i.filename, i.taken_at, i.exif_data, i.created_at, i.updated_at,
	       NULL, NULL, NULL, NULL, NULL, NULL, NULL
	FROM vehicle_images i
	WHERE i.vehicle_id = $1
	ORDER BY i.created_at DESC`

	rows, err := db.conn.Query(query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.VehicleImage
	for rows.Next() {
		img, err := scanImageWithVehicle(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}

	return images, rows.Err()
}
