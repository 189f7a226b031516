package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Location is a photo-taking spot. Rows are soft-deleted: Delete flips
// IsDeleted rather than removing the row, so a location can be
// restored together with its photo path.
type Location struct {
	ID          int64
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
	City        string
	State       string
	PhotoPath   string
	Timestamp   time.Time
	IsDeleted   bool
}

// NewLocation builds a not-yet-persisted Location and enforces the
// coordinate and title invariants.
func NewLocation(title, description string, latitude, longitude float64, city, state string) (Location, error) {
	l := Location{
		Title:       title,
		Description: description,
		Latitude:    latitude,
		Longitude:   longitude,
		City:        city,
		State:       state,
		Timestamp:   time.Now().UTC(),
	}
	if err := l.Validate(); err != nil {
		return Location{}, err
	}
	return l, nil
}

// Validate enforces the Location invariants.
func (l Location) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Title, validation.Required, validation.Length(1, 100)),
		validation.Field(&l.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&l.Longitude, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&l.City, validation.Length(0, 100)),
		validation.Field(&l.State, validation.Length(0, 100)),
	)
}

// WithID returns a copy carrying the identity assigned by the engine.
func (l Location) WithID(id int64) Location {
	l.ID = id
	return l
}

// WithPhoto returns a copy pointing at the captured photo, with a
// fresh timestamp.
func (l Location) WithPhoto(path string) Location {
	l.PhotoPath = path
	l.Timestamp = time.Now().UTC()
	return l
}

// WithCoordinates returns a copy at the new position, with a fresh
// timestamp. The caller is expected to Validate before persisting.
func (l Location) WithCoordinates(latitude, longitude float64) Location {
	l.Latitude = latitude
	l.Longitude = longitude
	l.Timestamp = time.Now().UTC()
	return l
}
