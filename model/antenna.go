package model

// Position is a local array-frame position in metres. X points to the
// intersection of the local meridian and the celestial equator, Y points
// east and Z points to the celestial pole.
type Position struct {
	X float64
	Y float64
	Z float64
}

// Antenna is one element of the array. Number is 1-based as used by the
// output baseline encoding; slices of antennas are indexed from 0.
type Antenna struct {
	Number   int
	Name     string
	Position Position

	// Present reports whether the antenna contributes to the correlated
	// data. It is derived from the input configuration.
	Present bool
}

// Array is the immutable set of antennas plus the site they sit on.
type Array struct {
	Name       string
	Instrument string
	Site       Site
	Antennas   []Antenna
}

// Site is the geodetic location of the array centre.
type Site struct {
	LatitudeRad  float64
	LongitudeRad float64
	HeightM      float64
}
