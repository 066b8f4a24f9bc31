package services

import "testing"

func TestSessionXP(t *testing.T) {
	tests := []struct {
		name    string
		planned int
		actual  int
		want    int64
	}{
		{"zero minutes", 25, 0, 0},
		{"partial session", 50, 25, 50},
		{"full planned block gets bonus", 25, 25, 62}, // 50 + 25%
		{"overshooting keeps bonus", 25, 30, 75},      // 60 + 25%
		{"no plan no bonus", 0, 25, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionXP(tt.planned, tt.actual); got != tt.want {
				t.Errorf("SessionXP(%d, %d) = %d, want %d", tt.planned, tt.actual, got, tt.want)
			}
		})
	}
}

func TestXPForNextLevelGrows(t *testing.T) {
	prev := int64(0)
	for level := 1; level <= 50; level++ {
		cost := xpForNextLevel(level)
		if cost < prev {
			t.Fatalf("level cost decreased at level %d: %d < %d", level, cost, prev)
		}
		prev = cost
	}
	if xpForNextLevel(0) != xpForNextLevel(1) {
		t.Errorf("sub-1 levels should cost the same as level 1")
	}
}
