package domain_test

import (
	"math"
	"testing"

	"journey/internal/domain"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestConvertDistance(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to domain.Unit
		want     float64
	}{
		{"km to miles", 10.0, domain.Kilometers, domain.Miles, 6.21371},
		{"miles to km", 10.0, domain.Miles, domain.Kilometers, 16.0934},
		{"same unit km", 42.195, domain.Kilometers, domain.Kilometers, 42.195},
		{"same unit miles", 26.2, domain.Miles, domain.Miles, 26.2},
		{"unknown units", 50.0, "leagues", domain.Kilometers, 50.0},
		{"zero value", 0, domain.Kilometers, domain.Miles, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ConvertDistance(tc.value, tc.from, tc.to)
			if !almostEqual(got, tc.want, 0.0001) {
				t.Errorf("ConvertDistance(%v, %q, %q) = %v; want %v",
					tc.value, tc.from, tc.to, got, tc.want)
			}
		})
	}
}
