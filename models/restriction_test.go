package models

import (
	"reflect"
	"testing"
	"time"
)

func TestFeatureGateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		gate FeatureGate
	}{
		{"enumerated", FeatureGate{Features: []string{"ai_planner", "advanced_stats"}}},
		{"blanket premium", FeatureGate{AllLocked: true, Class: FeatureClassPremium}},
		{"blanket social", FeatureGate{AllLocked: true, Class: FeatureClassSocial}},
		{"empty", FeatureGate{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := tt.gate.Value()
			if err != nil {
				t.Fatalf("Value() error: %v", err)
			}

			var got FeatureGate
			if err := got.Scan(value); err != nil {
				t.Fatalf("Scan() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.gate) {
				t.Errorf("round trip changed the gate: got %+v, want %+v", got, tt.gate)
			}
		})
	}
}

func TestFeatureGateScanString(t *testing.T) {
	var gate FeatureGate
	if err := gate.Scan(`{"all_locked":true,"class":"premium"}`); err != nil {
		t.Fatalf("Scan(string) error: %v", err)
	}
	if !gate.AllLocked || gate.Class != FeatureClassPremium {
		t.Errorf("unexpected gate after scan: %+v", gate)
	}

	if err := gate.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if !gate.Empty() {
		t.Errorf("scanning nil should reset the gate, got %+v", gate)
	}
}

func TestRestrictionInEffect(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name        string
		restriction Restriction
		want        bool
	}{
		{
			name:        "active and unexpired",
			restriction: Restriction{IsActive: true, EndDate: now.Add(time.Hour)},
			want:        true,
		},
		{
			name:        "active but past end date",
			restriction: Restriction{IsActive: true, EndDate: now.Add(-time.Minute)},
			want:        false,
		},
		{
			name:        "flag cleared",
			restriction: Restriction{IsActive: false, EndDate: now.Add(time.Hour)},
			want:        false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.restriction.InEffect(now); got != tt.want {
				t.Errorf("InEffect() = %v, want %v", got, tt.want)
			}
		})
	}
}
