package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSerializeKey(t *testing.T) {
	s := NewDefaultKeySerializer()

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.UnixMilli(1700000000000).UTC()

	tests := []struct {
		name   string
		method string
		args   []any
		want   string
	}{
		{
			name:   "no args",
			method: "Setting.GetAll",
			want:   "Setting.GetAll",
		},
		{
			name:   "string arg",
			method: "Setting.GetByKey",
			args:   []any{"theme"},
			want:   "Setting.GetByKey::theme",
		},
		{
			name:   "int64 arg",
			method: "Location.GetByID",
			args:   []any{int64(42)},
			want:   "Location.GetByID::42",
		},
		{
			name:   "int arg",
			method: "Location.GetByID",
			args:   []any{7},
			want:   "Location.GetByID::7",
		},
		{
			name:   "bool arg",
			method: "Location.List",
			args:   []any{true},
			want:   "Location.List::true",
		},
		{
			name:   "time arg uses epoch millis",
			method: "Weather.Since",
			args:   []any{ts},
			want:   "Weather.Since::1700000000000",
		},
		{
			name:   "string slice arg",
			method: "Setting.GetByKeys",
			args:   []any{[]string{"a", "b"}},
			want:   "Setting.GetByKeys::[a,b]",
		},
		{
			name:   "stringer arg",
			method: "Subscription.GetByTransaction",
			args:   []any{id},
			want:   "Subscription.GetByTransaction::6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		},
		{
			name:   "nil arg",
			method: "Setting.GetByKey",
			args:   []any{nil},
			want:   "Setting.GetByKey::nil",
		},
		{
			name:   "multiple args",
			method: "Weather.GetByLocation",
			args:   []any{int64(3), "metric"},
			want:   "Weather.GetByLocation::3::metric",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SerializeKey(tt.method, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeKeyIsStable(t *testing.T) {
	s := NewDefaultKeySerializer()

	first := s.SerializeKey("Setting.GetByKey", "theme")
	for i := 0; i < 10; i++ {
		if got := s.SerializeKey("Setting.GetByKey", "theme"); got != first {
			t.Fatalf("unstable key: %q != %q", got, first)
		}
	}
}
