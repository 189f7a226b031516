package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewSetting(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "valid", key: "theme", value: "dark"},
		{name: "empty value allowed", key: "note", value: ""},
		{name: "empty key rejected", key: "", value: "v", wantErr: true},
		{name: "key too long", key: strings.Repeat("k", 101), value: "v", wantErr: true},
		{name: "value too long", key: "k", value: strings.Repeat("v", 4097), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSetting(tt.key, tt.value, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSetting() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if s.Timestamp.IsZero() {
				t.Error("Timestamp not set")
			}
			if s.IsPersisted() {
				t.Error("new setting reports persisted")
			}
			if got := s.WithID(7); got.ID != 7 || !got.IsPersisted() {
				t.Errorf("WithID() = %+v", got)
			}
		})
	}
}

func TestNewLocation(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		latitude  float64
		longitude float64
		wantErr   bool
	}{
		{name: "valid", title: "Gasworks Park", latitude: 47.6456, longitude: -122.3344},
		{name: "equator meridian", title: "Null Island", latitude: 0, longitude: 0},
		{name: "empty title", title: "", latitude: 0, longitude: 0, wantErr: true},
		{name: "latitude too high", title: "Bad", latitude: 90.01, longitude: 0, wantErr: true},
		{name: "latitude too low", title: "Bad", latitude: -90.01, longitude: 0, wantErr: true},
		{name: "longitude too high", title: "Bad", latitude: 0, longitude: 180.01, wantErr: true},
		{name: "longitude too low", title: "Bad", latitude: 0, longitude: -180.01, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLocation(tt.title, "", tt.latitude, tt.longitude, "", "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLocation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if l.IsDeleted {
				t.Error("new location reports deleted")
			}
		})
	}
}

func TestLocationWithPhoto(t *testing.T) {
	l, err := NewLocation("Pier 66", "", 47.61, -122.35, "Seattle", "WA")
	if err != nil {
		t.Fatalf("NewLocation() error = %v", err)
	}

	before := l.Timestamp
	time.Sleep(time.Millisecond)
	got := l.WithPhoto("/photos/pier66.jpg")

	if got.PhotoPath != "/photos/pier66.jpg" {
		t.Errorf("PhotoPath = %q", got.PhotoPath)
	}
	if !got.Timestamp.After(before) {
		t.Error("Timestamp not refreshed")
	}
	if l.PhotoPath != "" {
		t.Error("WithPhoto mutated the receiver")
	}
}

func TestNewTip(t *testing.T) {
	tests := []struct {
		name      string
		tipTypeID int64
		title     string
		wantErr   bool
	}{
		{name: "valid", tipTypeID: 1, title: "Use the rule of thirds"},
		{name: "zero type", tipTypeID: 0, title: "T", wantErr: true},
		{name: "empty title", tipTypeID: 1, title: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tip, err := NewTip(tt.tipTypeID, tt.title, "content")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTip() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			got := tip.WithCameraSettings("f/8", "1/250", "100")
			if got.Fstop != "f/8" || got.ShutterSpeed != "1/250" || got.ISO != "100" {
				t.Errorf("WithCameraSettings() = %+v", got)
			}
		})
	}
}

func TestNewWeather(t *testing.T) {
	tests := []struct {
		name       string
		locationID int64
		humidity   int
		windSpeed  float64
		wantErr    bool
	}{
		{name: "valid", locationID: 1, humidity: 50, windSpeed: 3.5},
		{name: "zero location", locationID: 0, humidity: 50, wantErr: true},
		{name: "humidity over 100", locationID: 1, humidity: 101, wantErr: true},
		{name: "negative wind", locationID: 1, humidity: 50, windSpeed: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWeather(tt.locationID, 20, "clear", "01d", tt.windSpeed, tt.humidity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWeather() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWeatherIsStale(t *testing.T) {
	w := Weather{LastUpdate: time.Now().Add(-2 * time.Hour)}
	if !w.IsStale(time.Hour) {
		t.Error("two hour old snapshot not stale at one hour")
	}
	if w.IsStale(3 * time.Hour) {
		t.Error("two hour old snapshot stale at three hours")
	}
}

func TestNewSubscription(t *testing.T) {
	userID := uuid.NewString()
	expiration := time.Now().Add(30 * 24 * time.Hour)

	s, err := NewSubscription(userID, "pro.monthly", expiration)
	if err != nil {
		t.Fatalf("NewSubscription() error = %v", err)
	}

	if _, err := uuid.Parse(s.TransactionID); err != nil {
		t.Errorf("TransactionID %q is not a UUID: %v", s.TransactionID, err)
	}
	if !s.IsActive {
		t.Error("new subscription not active")
	}
	if s.IsExpired(time.Now()) {
		t.Error("future expiration reports expired")
	}
	if !s.IsExpired(expiration.Add(time.Second)) {
		t.Error("past expiration not reported expired")
	}

	other, err := NewSubscription(userID, "pro.monthly", expiration)
	if err != nil {
		t.Fatalf("NewSubscription() error = %v", err)
	}
	if other.TransactionID == s.TransactionID {
		t.Error("transaction ids not unique")
	}

	if got := s.Deactivated(); got.IsActive {
		t.Error("Deactivated() still active")
	}
}

func TestNewSubscriptionRejectsBadUserID(t *testing.T) {
	_, err := NewSubscription("not-a-uuid", "pro.monthly", time.Now().Add(time.Hour))
	if err == nil {
		t.Error("NewSubscription() accepted a non-UUID user id")
	}
}
