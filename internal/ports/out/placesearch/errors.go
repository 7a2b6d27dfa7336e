package placesearch

import "errors"

// ErrUnavailable reports that the search provider could not be reached or
// answered with an error. Implementations wrap the underlying cause.
var ErrUnavailable = errors.New("place search unavailable")
