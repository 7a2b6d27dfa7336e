package mappls

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sair-explore/quest-api/internal/ports/out/placesearch"
)

// atlasSuggestion mirrors one entry of the Atlas autosuggest response.
type atlasSuggestion struct {
	PlaceName    string  `json:"placeName"`
	PlaceAddress string  `json:"placeAddress"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	MapplsPin    string  `json:"mapplsPin"`
}

type atlasResponse struct {
	SuggestedLocations []atlasSuggestion `json:"suggestedLocations"`
}

// Search implements placesearch.Service over the Atlas autosuggest API.
// The anchor coordinate and zoom bias ranking toward the caller's region.
func (c *Client) Search(ctx context.Context, req placesearch.Request) ([]placesearch.Suggestion, error) {
	q := url.Values{}
	q.Set("query", req.Query)
	q.Set("location", fmt.Sprintf("%f,%f", req.Anchor.Latitude, req.Anchor.Longitude))
	if req.Zoom > 0 {
		q.Set("zoom", strconv.Itoa(req.Zoom))
	}

	endpoint := c.baseURL + "/api/places/search/json?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", placesearch.ErrUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", placesearch.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("query", req.Query).Msg("atlas autosuggest failed")
		return nil, fmt.Errorf("%w: status %d", placesearch.ErrUnavailable, resp.StatusCode)
	}

	var body atlasResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", placesearch.ErrUnavailable, err)
	}

	out := make([]placesearch.Suggestion, 0, len(body.SuggestedLocations))
	for _, s := range body.SuggestedLocations {
		sg := placesearch.Suggestion{
			Name:      s.PlaceName,
			Address:   s.PlaceAddress,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		}
		if s.MapplsPin != "" {
			pin := s.MapplsPin
			sg.Pin = &pin
		}
		out = append(out, sg)
	}
	return out, nil
}
