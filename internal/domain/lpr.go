package domain

import "strings"

// PlateDetection is the best licence-plate candidate read from an image.
type PlateDetection struct {
	Plate      string  `json:"detected_plate"`
	Confidence float32 `json:"confidence,omitempty"`
}

// NormalizePlate strips separators and upper-cases a plate so that "ab-12 cd" and "AB12CD" compare equal.
func NormalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(plate) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
