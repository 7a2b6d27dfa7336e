package placesearch

import "context"

// Anchor biases search ranking toward a coordinate. It is used when no
// user location is available.
type Anchor struct {
	Latitude  float64
	Longitude float64
}

// Request is one free-text autosuggest lookup.
type Request struct {
	Query  string
	Anchor Anchor
	Zoom   int
}

// Suggestion is one ranked place candidate returned by the vendor.
type Suggestion struct {
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	// Pin is the vendor place-pin identifier; nil means the vendor did not return one.
	Pin *string
}

// Service forwards free-text queries to an external geocoding/autosuggest
// provider. Implementations issue one lookup per call; staleness of
// overlapping calls is resolved by the caller.
type Service interface {
	Search(ctx context.Context, req Request) ([]Suggestion, error)
}
