package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Setting is a key/value reference row. Values are immutable: the
// With* methods return an updated copy with a fresh write timestamp,
// and repositories hand back new values carrying the assigned id
// instead of mutating the caller's copy.
type Setting struct {
	ID          int64
	Key         string
	Value       string
	Description string
	Timestamp   time.Time
}

// NewSetting builds a not-yet-persisted Setting (ID zero) and enforces
// the key/value invariants.
func NewSetting(key, value, description string) (Setting, error) {
	s := Setting{
		Key:         key,
		Value:       value,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return Setting{}, err
	}
	return s, nil
}

// Validate enforces the Setting invariants. Repositories call it again
// before writes so values assembled outside NewSetting cannot slip
// through.
func (s Setting) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Key, validation.Required, validation.Length(1, 100)),
		validation.Field(&s.Value, validation.Length(0, 4096)),
		validation.Field(&s.Description, validation.Length(0, 500)),
	)
}

// WithID returns a copy carrying the identity assigned by the engine.
func (s Setting) WithID(id int64) Setting {
	s.ID = id
	return s
}

// WithValue returns a copy with the new value and a fresh timestamp.
func (s Setting) WithValue(value string) Setting {
	s.Value = value
	s.Timestamp = time.Now().UTC()
	return s
}

// IsPersisted reports whether the setting has been written to storage.
func (s Setting) IsPersisted() bool { return s.ID != 0 }
