package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/drewb10/barbuddy/internal/model"
	"github.com/google/uuid"
)

type VenueStore struct {
	db *sql.DB
}

func NewVenueStore(db *sql.DB) *VenueStore {
	return &VenueStore{db: db}
}

func scanVenue(scanner interface{ Scan(...any) error }) (*model.Venue, error) {
	var v model.Venue
	err := scanner.Scan(&v.ID, &v.Name, &v.Type, &v.Address, &v.OpenHours, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const venueCols = `id, name, type, address, open_hours, created_at`

func (s *VenueStore) Create(name string, venueType model.VenueType, address, openHours string) (*model.Venue, error) {
	id := uuid.NewString()

	_, err := s.db.Exec(
		`INSERT INTO venues (id, name, type, address, open_hours, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, string(venueType), address, openHours, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert venue: %w", err)
	}
	return s.GetByID(id)
}

func (s *VenueStore) GetByID(id string) (*model.Venue, error) {
	row := s.db.QueryRow(`SELECT `+venueCols+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}
	return v, nil
}

// List returns all venues ordered by name for the discovery screen.
func (s *VenueStore) List() ([]model.Venue, error) {
	rows, err := s.db.Query(`SELECT ` + venueCols + ` FROM venues ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

// ListByType returns venues of one type, ordered by name.
func (s *VenueStore) ListByType(venueType model.VenueType) ([]model.Venue, error) {
	rows, err := s.db.Query(`SELECT `+venueCols+` FROM venues WHERE type = ? ORDER BY name ASC`, string(venueType))
	if err != nil {
		return nil, fmt.Errorf("list venues by type: %w", err)
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

func (s *VenueStore) Update(id, name string, venueType model.VenueType, address, openHours string) (*model.Venue, error) {
	_, err := s.db.Exec(
		`UPDATE venues SET name = ?, type = ?, address = ?, open_hours = ? WHERE id = ?`,
		name, string(venueType), address, openHours, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update venue: %w", err)
	}
	return s.GetByID(id)
}

func (s *VenueStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	return nil
}
