package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TipType groups tips into categories shown as tabs in the app.
type TipType struct {
	ID   int64
	Name string
}

// Tip is a photography tip with optional camera-setting hints.
type Tip struct {
	ID           int64
	TipTypeID    int64
	Title        string
	Content      string
	Fstop        string
	ShutterSpeed string
	ISO          string
	Timestamp    time.Time
}

// NewTip builds a not-yet-persisted Tip for the given type.
func NewTip(tipTypeID int64, title, content string) (Tip, error) {
	t := Tip{
		TipTypeID: tipTypeID,
		Title:     title,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return Tip{}, err
	}
	return t, nil
}

// Validate enforces the Tip invariants.
func (t Tip) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.TipTypeID, validation.Required, validation.Min(int64(1))),
		validation.Field(&t.Title, validation.Required, validation.Length(1, 200)),
	)
}

// WithID returns a copy carrying the identity assigned by the engine.
func (t Tip) WithID(id int64) Tip {
	t.ID = id
	return t
}

// WithCameraSettings returns a copy with the suggested exposure
// settings and a fresh timestamp.
func (t Tip) WithCameraSettings(fstop, shutterSpeed, iso string) Tip {
	t.Fstop = fstop
	t.ShutterSpeed = shutterSpeed
	t.ISO = iso
	t.Timestamp = time.Now().UTC()
	return t
}
