// Package reference models the curated fragrance dataset that shop records
// are matched against.
package reference

// Reference is one entry of the fragrance dataset.
type Reference struct {
	Name       string
	Brand      string
	Notes      Notes
	Accords    []Accord
	LaunchYear int // 0 when unknown
	Stats      Stats
}

// Accord is a scent family with its prominence in percent (0-100).
type Accord struct {
	Name   string
	Weight float64
}

// Stats holds ordinal ratings on a 1-5 scale. Zero means not rated.
type Stats struct {
	Longevity float64
	Sillage   float64
}
