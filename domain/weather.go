package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Weather is the cached conditions snapshot for one location. The HTTP
// client that produces these values is outside this layer; rows arrive
// already validated against the provider schema.
type Weather struct {
	ID          int64
	LocationID  int64
	Temperature float64
	Description string
	Icon        string
	WindSpeed   float64
	Humidity    int
	LastUpdate  time.Time
}

// NewWeather builds a not-yet-persisted snapshot for a location.
func NewWeather(locationID int64, temperature float64, description, icon string, windSpeed float64, humidity int) (Weather, error) {
	w := Weather{
		LocationID:  locationID,
		Temperature: temperature,
		Description: description,
		Icon:        icon,
		WindSpeed:   windSpeed,
		Humidity:    humidity,
		LastUpdate:  time.Now().UTC(),
	}
	if err := w.Validate(); err != nil {
		return Weather{}, err
	}
	return w, nil
}

// Validate enforces the snapshot invariants.
func (w Weather) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.LocationID, validation.Required, validation.Min(int64(1))),
		validation.Field(&w.Humidity, validation.Min(0), validation.Max(100)),
		validation.Field(&w.WindSpeed, validation.Min(0.0)),
	)
}

// WithID returns a copy carrying the identity assigned by the engine.
func (w Weather) WithID(id int64) Weather {
	w.ID = id
	return w
}

// IsStale reports whether the snapshot is older than maxAge.
func (w Weather) IsStale(maxAge time.Duration) bool {
	return time.Since(w.LastUpdate) > maxAge
}
