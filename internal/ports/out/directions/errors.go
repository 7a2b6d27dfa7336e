package directions

import "errors"

var (
	// ErrUnavailable reports that the directions provider could not be
	// reached or answered with an error.
	ErrUnavailable = errors.New("directions unavailable")

	// ErrNoRoute reports that the provider found no route between the
	// requested waypoints.
	ErrNoRoute = errors.New("no route found")
)
