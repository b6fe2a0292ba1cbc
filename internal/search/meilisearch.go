package search

import (
	"encoding/json"

	"github.com/meilisearch/meilisearch-go"

	"github.com/sss97133/nuke-sub012/internal/models"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "vehicles",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	// Configure searchable attributes
	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"make",
		"model",
	})
	if err != nil {
		return err
	}

	// Configure filterable attributes
	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"year",
		"make",
		"user_id",
		"is_public",
	})
	if err != nil {
		return err
	}

	// Configure sortable attributes
	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"year",
		"sale_price",
		"created_at",
	})
	return err
}

// IndexVehicle indexes a single vehicle
func (s *SearchClient) IndexVehicle(vehicle *models.Vehicle) error {
	_, err := s.client.Index(s.index).AddDocuments([]models.Vehicle{*vehicle})
	return err
}

// IndexVehicles indexes multiple vehicles
func (s *SearchClient) IndexVehicles(vehicles []models.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(vehicles)
	return err
}

// DeleteVehicle removes a vehicle from the index
func (s *SearchClient) DeleteVehicle(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// Search searches for vehicles with basic options
func (s *SearchClient) Search(query string, limit int64) ([]models.Vehicle, error) {
	return s.FilterSearch(FilterParams{Query: query, Limit: limit})
}

// decodeHits converts raw Meilisearch hits into vehicles
func decodeHits(hits []interface{}) []models.Vehicle {
	vehicles := make([]models.Vehicle, 0, len(hits))
	for _, hit := range hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var vehicle models.Vehicle
		if err := json.Unmarshal(hitJSON, &vehicle); err != nil {
			continue
		}

		vehicles = append(vehicles, vehicle)
	}
	return vehicles
}
