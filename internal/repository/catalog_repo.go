package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"parkslot/internal/entities"
)

type CatalogRepository struct {
	DB *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

// GetLocation loads the parking location with its slots. One location per
// deployment.
func (r *CatalogRepository) GetLocation() (*entities.ParkingLocation, error) {
	var loc entities.ParkingLocation
	err := r.DB.QueryRow(`SELECT id, name FROM parking_locations ORDER BY id LIMIT 1`).
		Scan(&loc.ID, &loc.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no parking location configured")
		}
		return nil, fmt.Errorf("error querying parking location: %w", err)
	}

	rows, err := r.DB.Query(`
		SELECT id, slot_number, vehicle_type, status, price_per_hour
		FROM slots
		WHERE location_id = $1
		ORDER BY slot_number`, loc.ID)
	if err != nil {
		return nil, fmt.Errorf("error querying slots: %w", err)
	}
	defer rows.Close()

	seenTypes := map[string]bool{}
	for rows.Next() {
		var s entities.Slot
		if err := rows.Scan(&s.ID, &s.SlotNumber, &s.VehicleType, &s.Status, &s.PricePerHour); err != nil {
			return nil, fmt.Errorf("error scanning slot: %w", err)
		}
		loc.Slots = append(loc.Slots, s)
		if !seenTypes[s.VehicleType] {
			seenTypes[s.VehicleType] = true
			loc.VehicleTypes = append(loc.VehicleTypes, s.VehicleType)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating slots: %w", err)
	}
	return &loc, nil
}
