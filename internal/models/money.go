package models

import "math"

// Round2 rounds a monetary amount to 2 decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds a percentage to 1 decimal
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
