package domain

const (
	kmToMiles = 0.621371
	milesToKm = 1.60934
)

// ConvertDistance converts a distance value between "km" and "miles".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertDistance(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	if from == Kilometers && to == Miles {
		return v * kmToMiles
	}
	if from == Miles && to == Kilometers {
		return v * milesToKm
	}
	return v
}
