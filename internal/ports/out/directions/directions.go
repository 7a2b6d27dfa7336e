package directions

import "context"

type Profile string

const ProfileDriving Profile = "driving"

// Waypoint is a coordinate plus label used to request a route.
type Waypoint struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Request is one directions lookup over an ordered waypoint list.
type Request struct {
	Waypoints []Waypoint
	Profile   Profile
}

// Route is the vendor's answer for the full waypoint sequence.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	// Polyline is the encoded route geometry; nil means not returned.
	Polyline *string
}

// Service requests a route from an external directions provider.
// One call issues one request; overlapping calls are resolved by the caller
// (last response wins).
type Service interface {
	Calculate(ctx context.Context, req Request) (Route, error)
}
