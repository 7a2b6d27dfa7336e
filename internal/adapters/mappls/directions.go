package mappls

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sair-explore/quest-api/internal/ports/out/directions"
)

type routeEntry struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry string  `json:"geometry"`
}

type routeResponse struct {
	Code   string       `json:"code"`
	Routes []routeEntry `json:"routes"`
}

// Calculate implements directions.Service over the route_adv API.
// Waypoints are passed in order as semicolon-separated lng,lat pairs,
// matching the OSRM-style advanced routing endpoint.
func (c *Client) Calculate(ctx context.Context, req directions.Request) (directions.Route, error) {
	if len(req.Waypoints) < 2 {
		return directions.Route{}, fmt.Errorf("%w: need at least two waypoints", directions.ErrNoRoute)
	}
	profile := req.Profile
	if profile == "" {
		profile = directions.ProfileDriving
	}

	coords := make([]string, 0, len(req.Waypoints))
	for _, w := range req.Waypoints {
		coords = append(coords, fmt.Sprintf("%f,%f", w.Longitude, w.Latitude))
	}
	endpoint := fmt.Sprintf(
		"%s/advancedmaps/v1/%s/route_adv/%s/%s?geometries=polyline&overview=full&steps=false",
		c.baseURL, c.apiKey, profile, strings.Join(coords, ";"),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return directions.Route{}, fmt.Errorf("%w: %v", directions.ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return directions.Route{}, fmt.Errorf("%w: %v", directions.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Int("waypoints", len(req.Waypoints)).Msg("route request failed")
		return directions.Route{}, fmt.Errorf("%w: status %d", directions.ErrUnavailable, resp.StatusCode)
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return directions.Route{}, fmt.Errorf("%w: decoding response: %v", directions.ErrUnavailable, err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return directions.Route{}, directions.ErrNoRoute
	}

	best := body.Routes[0]
	out := directions.Route{
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}
	if best.Geometry != "" {
		g := best.Geometry
		out.Polyline = &g
	}
	return out, nil
}
